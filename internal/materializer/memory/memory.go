// Package memory is an in-process materializer. It hands out AWS-shaped
// identifiers derived from entity keys, so the same topology always yields
// the same identities, and can inject pending polls and failures.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/topology"
)

// DefaultAccount is the account id embedded in generated ARNs.
const DefaultAccount = "123456789012"

// elbHostedZones are the canonical hosted zones of application load
// balancers per region.
var elbHostedZones = map[string]string{
	"us-east-1":      "Z35SXDOTRQ7X7K",
	"us-east-2":      "Z3AADJGX6KTTL2",
	"us-west-1":      "Z368ELLRRE2KJ0",
	"us-west-2":      "Z1H1FL5HABSF5",
	"eu-west-1":      "Z32O12XQLNTSW2",
	"eu-central-1":   "Z215JYRZR1TBD5",
	"ap-southeast-1": "Z1LMS91P8CMLE5",
	"ap-northeast-1": "Z14GRHDCWA56QT",
}

type resource struct {
	identity   string
	hash       string
	status     materializer.Status
	pending    int
	inputs     map[topology.Key]string
	attributes map[string]string
}

type failure struct {
	remaining int // negative means forever
	reason    string
}

// Hook runs at the start of every CreateOrUpdate call.
type Hook func(ctx context.Context, desired materializer.Desired)

// Option configures a Materializer.
type Option func(*Materializer)

// WithAccount sets the account id used in ARNs.
func WithAccount(id string) Option {
	return func(m *Materializer) { m.account = id }
}

// WithPendingPolls makes every new or changed resource report pending for n
// calls before completing.
func WithPendingPolls(n int) Option {
	return func(m *Materializer) { m.pendingPolls = n }
}

// WithHook registers a hook.
func WithHook(h Hook) Option {
	return func(m *Materializer) { m.hook = h }
}

// Materializer is safe for concurrent use.
type Materializer struct {
	mu sync.Mutex

	account      string
	pendingPolls int
	hook         Hook

	resources      map[topology.Key]*resource
	createFailures map[topology.Key]*failure
	deleteFailures map[topology.Key]*failure
	creates        map[topology.Key]int
	calls          map[topology.Key]int
	deleted        []topology.Key
}

var _ materializer.Materializer = (*Materializer)(nil)

// New creates an empty materializer.
func New(opts ...Option) *Materializer {
	m := &Materializer{
		account:        DefaultAccount,
		resources:      make(map[topology.Key]*resource),
		createFailures: make(map[topology.Key]*failure),
		deleteFailures: make(map[topology.Key]*failure),
		creates:        make(map[topology.Key]int),
		calls:          make(map[topology.Key]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FailCreate makes the next times CreateOrUpdate calls for key report
// failed. A negative times fails every call.
func (m *Materializer) FailCreate(key topology.Key, times int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createFailures[key] = &failure{remaining: times, reason: reason}
}

// FailDelete is FailCreate for Delete.
func (m *Materializer) FailDelete(key topology.Key, times int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteFailures[key] = &failure{remaining: times, reason: reason}
}

// CreateOrUpdate implements materializer.Materializer.
func (m *Materializer) CreateOrUpdate(ctx context.Context, desired materializer.Desired) (materializer.Result, error) {
	if m.hook != nil {
		m.hook(ctx, desired)
	}
	if err := ctx.Err(); err != nil {
		return materializer.Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := desired.Key
	m.calls[key]++

	if err := m.checkInputs(desired); err != nil {
		return materializer.Result{}, err
	}

	if reason, ok := take(m.createFailures, key); ok {
		return materializer.Result{Status: materializer.StatusFailed, Reason: reason}, nil
	}

	r, exists := m.resources[key]
	if !exists {
		identity, attrs := m.identify(key)
		r = &resource{identity: identity, attributes: attrs, pending: m.pendingPolls, status: materializer.StatusPending}
		m.resources[key] = r
		m.creates[key]++
	} else if r.hash != desired.Hash && r.status == materializer.StatusComplete {
		r.pending = m.pendingPolls
		r.status = materializer.StatusPending
	}
	r.hash = desired.Hash
	r.inputs = copyInputs(desired.Inputs)

	if r.pending > 0 {
		r.pending--
	} else {
		r.status = materializer.StatusComplete
	}

	return materializer.Result{
		Identity:   r.identity,
		Status:     r.status,
		Attributes: copyAttrs(r.attributes),
	}, nil
}

// Delete implements materializer.Materializer. Deleting a resource that is
// still referenced by a live resource fails, the way a provider refuses to
// delete a network with attachments. Deleting an unknown resource succeeds.
func (m *Materializer) Delete(ctx context.Context, target materializer.Target) (materializer.Result, error) {
	if err := ctx.Err(); err != nil {
		return materializer.Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := target.Key
	if reason, ok := take(m.deleteFailures, key); ok {
		return materializer.Result{Identity: target.Identity, Status: materializer.StatusFailed, Reason: reason}, nil
	}

	if _, exists := m.resources[key]; !exists {
		return materializer.Result{Identity: target.Identity, Status: materializer.StatusComplete}, nil
	}
	for other, r := range m.resources {
		if _, uses := r.inputs[key]; uses {
			return materializer.Result{
				Identity: target.Identity,
				Status:   materializer.StatusFailed,
				Reason:   fmt.Sprintf("resource is in use by %s", other),
			}, nil
		}
	}

	delete(m.resources, key)
	m.deleted = append(m.deleted, key)
	return materializer.Result{Identity: target.Identity, Status: materializer.StatusComplete}, nil
}

// checkInputs asserts that every dependency was handed over with its
// realized identity. Dependencies this materializer created must be
// complete under that identity; others are assumed to come from an
// earlier process.
func (m *Materializer) checkInputs(desired materializer.Desired) error {
	if desired.Spec == nil {
		return fmt.Errorf("%s: desired spec is missing", desired.Key)
	}
	for _, dep := range desired.Spec.Dependencies() {
		id := desired.Inputs[dep]
		if id == "" {
			return &topology.DependencyNotReadyError{Entity: desired.Key, Dependency: dep, Status: "missing"}
		}
		if r, ok := m.resources[dep]; ok && (r.status != materializer.StatusComplete || r.identity != id) {
			return &topology.DependencyNotReadyError{Entity: desired.Key, Dependency: dep, Status: string(r.status)}
		}
	}
	return nil
}

// Exists reports whether a resource is live.
func (m *Materializer) Exists(key topology.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.resources[key]
	return ok
}

// Identity returns the identity of a live resource.
func (m *Materializer) Identity(key topology.Key) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[key]; ok {
		return r.identity
	}
	return ""
}

// Creates returns how many times a resource was created for key.
func (m *Materializer) Creates(key topology.Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates[key]
}

// TotalCreates returns the number of resources ever created.
func (m *Materializer) TotalCreates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.creates {
		n += c
	}
	return n
}

// Calls returns how many CreateOrUpdate calls were made for key.
func (m *Materializer) Calls(key topology.Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

// Live returns the number of live resources.
func (m *Materializer) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// Deleted returns the keys deleted so far, in order.
func (m *Materializer) Deleted() []topology.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]topology.Key(nil), m.deleted...)
}

// identify derives the identity and attributes of a new resource.
func (m *Materializer) identify(key topology.Key) (string, map[string]string) {
	suffix := digest(key)
	switch key.Kind {
	case topology.KindTable:
		return fmt.Sprintf("arn:aws:dynamodb::%s:global-table/%s", m.account, key.Name), nil
	case topology.KindNetwork:
		return "vpc-" + suffix, nil
	case topology.KindIdentity:
		return fmt.Sprintf("arn:aws:iam::%s:role/%s", m.account, key.Name), nil
	case topology.KindSecurityGroup:
		return "sg-" + suffix, nil
	case topology.KindTemplate:
		return "lt-" + suffix, nil
	case topology.KindFleet:
		return fmt.Sprintf("arn:aws:autoscaling:%s:%s:autoScalingGroup:%s:autoScalingGroupName/%s",
			key.Region, m.account, uuid(suffix), key.Name), nil
	case topology.KindEdge:
		arn := fmt.Sprintf("arn:aws:elasticloadbalancing:%s:%s:loadbalancer/app/%s/%s",
			key.Region, m.account, key.Name, suffix)
		return arn, map[string]string{
			materializer.AttrDNSName:      fmt.Sprintf("%s-%s.%s.elb.amazonaws.com", key.Name, suffix[:10], key.Region),
			materializer.AttrHostedZoneID: hostedZone(key.Region, suffix),
		}
	case topology.KindAccessNode:
		return "i-" + suffix, nil
	default:
		return fmt.Sprintf("%s-%s", key.Kind, suffix), nil
	}
}

func hostedZone(region, suffix string) string {
	if z, ok := elbHostedZones[region]; ok {
		return z
	}
	return "Z" + strings.ToUpper(suffix[:13])
}

func digest(key topology.Key) string {
	d, err := topology.Digest(key)
	if err != nil {
		// Keys are plain strings; hashing cannot fail.
		panic(err)
	}
	return d
}

func uuid(hex string) string {
	h := hex + hex
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

func take(failures map[topology.Key]*failure, key topology.Key) (string, bool) {
	f, ok := failures[key]
	if !ok || f.remaining == 0 {
		return "", false
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.reason, true
}

func copyInputs(in map[topology.Key]string) map[topology.Key]string {
	out := make(map[topology.Key]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyAttrs(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

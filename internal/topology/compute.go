package topology

import (
	"fmt"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
)

// IngressRule admits traffic on Port from Sources (CIDRs) or from the
// members of another security group.
type IngressRule struct {
	Port        int
	Sources     []string
	SourceGroup Key
}

// SecurityGroup is a network-security boundary inside a network.
type SecurityGroup struct {
	Name    string
	Region  string
	Network Key
	Ingress []IngressRule
	Tags    map[string]string `hash:"ignore"`
}

// Key implements Entity.
func (s *SecurityGroup) Key() Key {
	return Key{Kind: KindSecurityGroup, Region: s.Region, Name: s.Name}
}

// Dependencies implements Entity.
func (s *SecurityGroup) Dependencies() []Key {
	deps := []Key{s.Network}
	for _, r := range s.Ingress {
		if !r.SourceGroup.IsZero() {
			deps = append(deps, r.SourceGroup)
		}
	}
	return deps
}

// templateDigestLen is how many digest characters a template name carries.
const templateDigestLen = 10

// MachineImage selects a base image.
type MachineImage struct {
	Family       string
	Architecture string
}

// ComputeTemplate is the launch specification of one node kind. Templates
// are immutable: the name carries a digest of the content, so a changed
// template is a new entity and the old one is never mutated in place.
type ComputeTemplate struct {
	Name          string `hash:"ignore"`
	BaseName      string `hash:"ignore"`
	Region        string
	InstanceType  string
	Image         MachineImage
	Payload       []byte
	Identity      Key
	SecurityGroup Key
	Tags          map[string]string `hash:"ignore"`
}

// TemplateSpec is the content of a compute template.
type TemplateSpec struct {
	BaseName      string
	Region        string
	InstanceType  string
	Image         MachineImage
	Payload       []byte
	Identity      Key
	SecurityGroup Key
	Tags          map[string]string
}

// NewComputeTemplate declares a template whose key embeds its content digest.
func NewComputeTemplate(spec TemplateSpec) (*ComputeTemplate, error) {
	t := &ComputeTemplate{
		BaseName:      spec.BaseName,
		Region:        spec.Region,
		InstanceType:  spec.InstanceType,
		Image:         spec.Image,
		Payload:       spec.Payload,
		Identity:      spec.Identity,
		SecurityGroup: spec.SecurityGroup,
		Tags:          spec.Tags,
	}
	digest, err := Digest(t)
	if err != nil {
		return nil, fmt.Errorf("failed to digest template %s: %w", spec.BaseName, err)
	}
	t.Name = fmt.Sprintf("%s-%s", spec.BaseName, digest[:templateDigestLen])
	return t, nil
}

// Key implements Entity.
func (t *ComputeTemplate) Key() Key {
	return Key{Kind: KindTemplate, Region: t.Region, Name: t.Name}
}

// Dependencies implements Entity.
func (t *ComputeTemplate) Dependencies() []Key {
	return []Key{t.Identity, t.SecurityGroup}
}

// Supersedes reports whether k names an earlier revision of t: a template
// in the same region with the same base name and a different digest.
func (t *ComputeTemplate) Supersedes(k Key) bool {
	if k.Kind != KindTemplate || k.Region != t.Region || k.Name == t.Name {
		return false
	}
	digest, ok := strings.CutPrefix(k.Name, t.BaseName+"-")
	return ok && len(digest) == templateDigestLen
}

// Digest returns a stable content hash of an entity. Fields tagged
// hash:"ignore" (names and tags) do not contribute.
func Digest(v any) (string, error) {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h), nil
}

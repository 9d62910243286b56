package provisioning_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/materializer/memory"
	"github.com/imamik/fleetstack/internal/provisioning"
	fstest "github.com/imamik/fleetstack/internal/testing"
	"github.com/imamik/fleetstack/internal/topology"
)

func kindCount(topo *topology.Topology, kind topology.Kind) int {
	n := 0
	for _, k := range topo.Graph().Keys() {
		if k.Kind == kind {
			n++
		}
	}
	return n
}

var _ = Describe("Topology materialization", func() {
	var (
		ctx context.Context
		fx  *fstest.Fixture
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	Context("with fleets in two regions and access in a third", func() {
		BeforeEach(func() {
			fx = fstest.NewFixture(fstest.FullConfig())
		})

		It("materializes one table, two regional triples and one access node", func() {
			pctx, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())

			topo := pctx.Topology
			Expect(kindCount(topo, topology.KindTable)).To(Equal(1))
			Expect(kindCount(topo, topology.KindNetwork)).To(Equal(3))
			Expect(kindCount(topo, topology.KindFleet)).To(Equal(2))
			Expect(kindCount(topo, topology.KindEdge)).To(Equal(2))
			Expect(kindCount(topo, topology.KindAccessNode)).To(Equal(1))

			Expect(topo.Table.Regions()).To(ConsistOf("us-east-1", "us-west-2"))
			for _, f := range topo.Fleets() {
				Expect(f.Fleet.MinCapacity).To(Equal(2))
				Expect(f.Identity.HasDataGrantOn(topo.Table.Key())).To(BeTrue())
			}
			Expect(topo.Access.Node.Region).To(Equal("us-east-2"))
			Expect(topo.Access.Identity.DataGrants()).To(BeEmpty())

			Expect(fx.Materializer.Live()).To(Equal(topo.Graph().Len()))
			Expect(pctx.State.Outputs.Complete()).To(BeTrue())
			Expect(pctx.State.Outputs.Named()).To(HaveKey("us-west-2/LoadBalancerDNSName"))
			Expect(pctx.State.Outputs.Named()).To(HaveKey("us-east-2/BastionID"))
		})

		It("does nothing on a second run", func() {
			_, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())
			creates := fx.Materializer.TotalCreates()

			_, obs, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())
			Expect(fx.Materializer.TotalCreates()).To(Equal(creates))
			Expect(obs.EventsOf(provisioning.EventResourceCreating)).To(BeEmpty())
		})

		It("refuses a second concurrent run", func() {
			lease, err := fx.Store.Lock(ctx, fx.Config.Name, "other-run")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = lease.Release(context.Background()) })

			_, _, err = run(ctx, fx, provisioning.NewAssembler())
			Expect(config.IsConfigurationError(err)).To(BeTrue())
			Expect(fx.Materializer.TotalCreates()).To(BeZero())
		})

		It("tears everything down dependents first", func() {
			pctx, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())

			_, _, err = run(ctx, fx, provisioning.NewTeardownPhase(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(fx.Materializer.Live()).To(BeZero())

			deleted := fx.Materializer.Deleted()
			Expect(deleted[len(deleted)-1]).To(SatisfyAny(
				Equal(pctx.Topology.Table.Key()),
				HaveField("Kind", topology.KindNetwork),
			))
		})
	})

	Context("with an empty target-region list", func() {
		BeforeEach(func() {
			fx = fstest.NewFixture(fstest.NewConfigBuilder().
				WithRegions().
				WithReplicaRegions("us-east-1", "us-west-2").
				Build())
		})

		It("fails with a configuration error before materializing anything", func() {
			_, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).To(HaveOccurred())
			Expect(config.IsConfigurationError(err)).To(BeTrue())
			Expect(fx.Materializer.TotalCreates()).To(BeZero())
		})
	})

	Context("with replicas that no fleet consumes", func() {
		BeforeEach(func() {
			fx = fstest.NewFixture(fstest.NewConfigBuilder().
				WithRegions("us-east-1").
				WithReplicaRegions("us-east-1", "us-west-2", "eu-west-1").
				Build())
		})

		It("materializes the table with every replica", func() {
			pctx, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())
			Expect(pctx.Topology.Table.Regions()).To(ConsistOf("us-east-1", "us-west-2", "eu-west-1"))
			Expect(pctx.Topology.Fleets()).To(HaveLen(1))
		})
	})

	Context("when the second region's fleet fails", func() {
		var west *topology.RegionStack

		BeforeEach(func() {
			fx = fstest.NewFixture(fstest.FullConfig())
			topo, err := topology.Build(fx.Config)
			Expect(err).NotTo(HaveOccurred())
			west, _ = topo.Region("us-west-2")
			fx.Materializer.FailCreate(west.Compute.Fleet.Key(), -1, "insufficient capacity")
		})

		It("keeps the first region and reports the second as failed", func() {
			pctx, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(provisioning.IsPartialFailure(err)).To(BeTrue())

			var pf *provisioning.PartialFailureError
			Expect(errors.As(err, &pf)).To(BeTrue())
			Expect(pf.Failed).To(ConsistOf(west.Compute.Fleet.Key()))
			Expect(pf.Blocked).To(ConsistOf(west.Edge.Key()))

			out := pctx.State.Outputs
			Expect(out.FailedRegions).To(ConsistOf("us-west-2"))
			east, ok := out.Region("us-east-1")
			Expect(ok).To(BeTrue())
			Expect(east.EdgeDNSName).To(ContainSubstring("us-east-1.elb.amazonaws.com"))
			Expect(fx.Materializer.Deleted()).To(BeEmpty())
		})

		It("completes on the next run without touching the first region", func() {
			_, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).To(HaveOccurred())
			fx.Materializer.FailCreate(west.Compute.Fleet.Key(), 0, "")

			pctx, obs, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.Resources(provisioning.EventResourceCreated)).To(ConsistOf(
				west.Compute.Fleet.Key().String(),
				west.Edge.Key().String(),
			))
			Expect(pctx.State.Outputs.Complete()).To(BeTrue())
		})
	})

	Context("when a run is interrupted", func() {
		It("resumes without creating anything twice", func() {
			cfg := fstest.NewConfigBuilder().WithConcurrency(2).Build()
			topo, err := topology.Build(cfg)
			Expect(err).NotTo(HaveOccurred())
			stopAt := topo.Regions[1].Edge.Key()

			runCtx, stop := context.WithCancel(ctx)
			var once sync.Once
			fx = fstest.NewFixture(cfg, memory.WithHook(func(_ context.Context, d materializer.Desired) {
				if d.Key == stopAt {
					once.Do(stop)
				}
			}))

			_, _, err = run(runCtx, fx, provisioning.NewAssembler())
			Expect(err).To(MatchError(context.Canceled))
			Expect(fx.Store.Locked(cfg.Name)).To(BeFalse())

			pctx, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())
			for _, k := range pctx.Topology.Graph().Keys() {
				Expect(fx.Materializer.Creates(k)).To(Equal(1), "%s", k)
			}
		})
	})

	Context("when a dependent cannot be deleted", func() {
		It("leaves its dependencies in place and reports them", func() {
			fx = fstest.NewFixture(fstest.FullConfig())
			pctx, _, err := run(ctx, fx, provisioning.NewAssembler())
			Expect(err).NotTo(HaveOccurred())
			east := pctx.Topology.Regions[0]
			fx.Materializer.FailDelete(east.Edge.Key(), -1, "listener busy")

			_, _, err = run(ctx, fx, provisioning.NewTeardownPhase("us-east-1"))
			Expect(provisioning.IsPartialTeardown(err)).To(BeTrue())
			Expect(fx.Materializer.Exists(east.Edge.Key())).To(BeTrue())
			Expect(fx.Materializer.Exists(east.Compute.Fleet.Key())).To(BeTrue())
			Expect(fx.Materializer.Exists(east.Network.Key())).To(BeTrue())

			west := pctx.Topology.Regions[1]
			Expect(fx.Materializer.Exists(west.Edge.Key())).To(BeTrue())
		})
	})
})

package config

// ApplyDefaults fills every unset field. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.PrimaryRegion == "" && len(c.Regions) > 0 {
		c.PrimaryRegion = c.Regions[0]
	}

	c.applyTableDefaults()

	c.Network = defaultNetwork(c.Network, DefaultAZCount, DefaultFleetTiers())

	f := &c.Fleet
	if f.InstanceType == "" {
		f.InstanceType = DefaultInstanceType
	}
	f.Image = defaultImage(f.Image)
	if f.Payload == "" && f.PayloadFile == "" {
		f.Payload = DefaultPayload
	}
	if f.MinCapacity == 0 {
		f.MinCapacity = DefaultMinCapacity
	}
	if f.MaxCapacity == 0 {
		f.MaxCapacity = f.MinCapacity
	}
	if f.HealthCheckGrace == 0 {
		f.HealthCheckGrace = DefaultHealthCheckGrace
	}

	e := &c.Edge
	if e.ListenPort == 0 {
		e.ListenPort = DefaultListenPort
	}
	if e.BackendPort == 0 {
		e.BackendPort = DefaultBackendPort
	}
	if e.SessionAffinity == 0 {
		e.SessionAffinity = DefaultSessionAffinity
	}

	a := &c.Access
	a.Network = defaultNetwork(a.Network, DefaultAccessAZCount, DefaultAccessTiers())
	if a.Tier == "" {
		a.Tier = DefaultAccessTier
	}
	if a.InstanceType == "" {
		a.InstanceType = DefaultInstanceType
	}
	a.Image = defaultImage(a.Image)
	if a.InstanceName == "" {
		a.InstanceName = DefaultAccessName
	}

	if c.State.Backend == "" {
		c.State.Backend = StateBackendFile
	}
	if c.State.Path == "" {
		c.State.Path = DefaultStatePath
	}
	if c.Materializer == "" {
		c.Materializer = MaterializerMemory
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
}

func (c *Config) applyTableDefaults() {
	t := &c.Table
	if t.Name == "" {
		t.Name = c.Name
	}
	// nil means "not configured"; an explicit empty list is kept so that
	// validation can reject it.
	if t.ReplicaRegions == nil && len(c.Regions) > 0 {
		t.ReplicaRegions = append([]string(nil), c.Regions...)
	}
	if t.PartitionKey.Name == "" {
		t.PartitionKey.Name = DefaultPartitionKey
	}
	if t.PartitionKey.Type == "" {
		t.PartitionKey.Type = DefaultPartitionKeyType
	}
	if t.BillingMode == "" {
		t.BillingMode = DefaultBillingMode
	}
}

func defaultNetwork(n NetworkConfig, azCount int, tiers []TierConfig) NetworkConfig {
	if n.CIDR == "" {
		n.CIDR = DefaultCIDR
	}
	if n.AZCount == 0 {
		n.AZCount = azCount
	}
	if len(n.Tiers) == 0 {
		n.Tiers = tiers
	}
	for i := range n.Tiers {
		if n.Tiers[i].Mask == 0 {
			n.Tiers[i].Mask = DefaultSubnetMask
		}
	}
	return n
}

func defaultImage(img ImageConfig) ImageConfig {
	if img.Family == "" {
		img.Family = DefaultImageFamily
	}
	if img.Architecture == "" {
		img.Architecture = DefaultArchitecture
	}
	return img
}

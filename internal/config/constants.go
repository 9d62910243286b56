package config

import "time"

// Subnet tier visibilities.
const (
	VisibilityPublic            = "public"
	VisibilityPrivateWithEgress = "private-with-egress"
)

// State backends.
const (
	StateBackendFile   = "file"
	StateBackendS3     = "s3"
	StateBackendMemory = "memory"
)

// MaterializerMemory selects the in-process materializer.
const MaterializerMemory = "memory"

// Defaults mirror the original single-region application stack.
const (
	DefaultCIDR             = "10.0.0.0/16"
	DefaultAZCount          = 2
	DefaultSubnetMask       = 24
	DefaultInstanceType     = "t4g.micro"
	DefaultImageFamily      = "amazon-linux-2"
	DefaultArchitecture     = "arm64"
	DefaultMinCapacity      = 2
	DefaultHealthCheckGrace = 30 * time.Second
	DefaultListenPort       = 80
	DefaultBackendPort      = 8080
	DefaultSessionAffinity  = time.Hour
	DefaultPartitionKey     = "id"
	DefaultPartitionKeyType = "S"
	DefaultBillingMode      = "PAY_PER_REQUEST"
	DefaultAccessAZCount    = 1
	DefaultAccessTier       = "bastion"
	DefaultAccessName       = "client"
	DefaultStatePath        = ".fleetstack"
	DefaultConcurrency      = 4

	// MinFleetCapacity is the lowest capacity that keeps a fleet available
	// across an AZ outage.
	MinFleetCapacity = 2

	// MaxSessionAffinity is the longest cookie stickiness an edge accepts.
	MaxSessionAffinity = 7 * 24 * time.Hour
)

// DefaultPayload installs and starts the application on first boot.
const DefaultPayload = `#!/bin/bash
amazon-linux-extras install -y python3.8
curl -O https://bootstrap.pypa.io/get-pip.py
python3.8 get-pip.py
wget https://github.com/sebsto/tictactoe-dynamodb/releases/download/v02/tictactoe-app.zip
mkdir tictactoe-app && cd tictactoe-app
unzip ../tictactoe-app.zip
/usr/local/bin/pip install -r requirements.txt
USE_EC2_INSTANCE_METADATA=true python3.8 application.py --serverPort 8080
`

// DefaultFleetTiers is the subnet layout of a fleet region.
func DefaultFleetTiers() []TierConfig {
	return []TierConfig{
		{Name: "load balancer", Visibility: VisibilityPublic, Mask: DefaultSubnetMask},
		{Name: "application", Visibility: VisibilityPrivateWithEgress, Mask: DefaultSubnetMask},
	}
}

// DefaultAccessTiers is the subnet layout of the access region.
func DefaultAccessTiers() []TierConfig {
	return []TierConfig{
		{Name: "igw", Visibility: VisibilityPublic, Mask: DefaultSubnetMask},
		{Name: DefaultAccessTier, Visibility: VisibilityPrivateWithEgress, Mask: DefaultSubnetMask},
	}
}

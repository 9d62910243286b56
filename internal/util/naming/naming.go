package naming

import "fmt"

func Table(topology string) string {
	return topology
}

func Network(topology, region string) string {
	return fmt.Sprintf("%s-%s-vpc", topology, region)
}

func Fleet(topology, region string) string {
	return fmt.Sprintf("%s-%s-app", topology, region)
}

func Edge(topology, region string) string {
	return fmt.Sprintf("%s-%s-alb", topology, region)
}

func AccessNetwork(topology, region string) string {
	return fmt.Sprintf("%s-%s-access-vpc", topology, region)
}

func AccessNode(topology, region string) string {
	return fmt.Sprintf("%s-%s-access", topology, region)
}

// StateObject is the journal object name of a topology.
func StateObject(topology string) string {
	return fmt.Sprintf("%s.state.yaml", topology)
}

// LockObject is the lease object name of a topology.
func LockObject(topology string) string {
	return fmt.Sprintf("%s.lock", topology)
}

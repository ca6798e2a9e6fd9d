package kafka

import (
	"fmt"
	"sort"
)

// DescribeCluster returns the cluster's brokers and controller, sorted by
// broker id.
func DescribeCluster(cfg *Config) (*ClusterInfo, error) {
	admin, err := cfg.connectAdmin()
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	brokers, controllerID, err := admin.DescribeCluster()
	if err != nil {
		return nil, fmt.Errorf("%w: describing cluster: %w", ErrBrokerUnavailable, err)
	}

	info := &ClusterInfo{ControllerID: controllerID}
	for _, b := range brokers {
		info.Brokers = append(info.Brokers, BrokerInfo{
			ID:         b.ID(),
			Addr:       b.Addr(),
			Rack:       b.Rack(),
			Controller: b.ID() == controllerID,
		})
	}
	sort.Slice(info.Brokers, func(i, j int) bool { return info.Brokers[i].ID < info.Brokers[j].ID })
	return info, nil
}

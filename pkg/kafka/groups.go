package kafka

import (
	"fmt"
	"sort"

	"github.com/IBM/sarama"
)

// ListGroups returns every consumer group in the cluster with its state,
// sorted by group id.
func ListGroups(cfg *Config) ([]GroupInfo, error) {
	admin, err := cfg.connectAdmin()
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	listed, err := admin.ListConsumerGroups()
	if err != nil {
		return nil, fmt.Errorf("%w: listing consumer groups: %w", ErrBrokerUnavailable, err)
	}

	ids := make([]string, 0, len(listed))
	for id := range listed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]GroupInfo, 0, len(ids))
	described, err := admin.DescribeConsumerGroups(ids)
	if err != nil {
		// Fall back to what ListConsumerGroups gave us.
		cfg.logger().WithError(err).Warn("failed to describe consumer groups")
		for _, id := range ids {
			groups = append(groups, GroupInfo{GroupID: id, ProtocolType: listed[id]})
		}
		return groups, nil
	}

	for _, desc := range described {
		if desc.Err != sarama.ErrNoError {
			cfg.logger().WithField("group", desc.GroupId).WithError(desc.Err).Warn("failed to describe consumer group")
			groups = append(groups, GroupInfo{GroupID: desc.GroupId, ProtocolType: listed[desc.GroupId]})
			continue
		}
		groups = append(groups, GroupInfo{
			GroupID:      desc.GroupId,
			State:        desc.State,
			ProtocolType: desc.ProtocolType,
			Protocol:     desc.Protocol,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })
	return groups, nil
}

// DescribeGroup returns one group's state and member assignments.
func DescribeGroup(cfg *Config, group string) (*GroupDetail, error) {
	admin, err := cfg.connectAdmin()
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	described, err := admin.DescribeConsumerGroups([]string{group})
	if err != nil {
		return nil, fmt.Errorf("%w: describing group %s: %w", ErrBrokerUnavailable, group, err)
	}
	if len(described) == 0 {
		return nil, fmt.Errorf("consumer group %s not found", group)
	}
	desc := described[0]
	if desc.Err != sarama.ErrNoError {
		return nil, fmt.Errorf("describing group %s: %w", group, desc.Err)
	}

	detail := &GroupDetail{
		GroupInfo: GroupInfo{
			GroupID:      desc.GroupId,
			State:        desc.State,
			ProtocolType: desc.ProtocolType,
			Protocol:     desc.Protocol,
		},
	}
	for id, member := range desc.Members {
		info := MemberInfo{ID: id, ClientID: member.ClientId, Host: member.ClientHost}
		assignment, err := member.GetMemberAssignment()
		if err == nil && assignment != nil {
			info.Assignment = assignment.Topics
		} else if err != nil {
			cfg.logger().WithField("member", id).WithError(err).Debug("no parsable member assignment")
		}
		detail.Members = append(detail.Members, info)
	}
	sort.Slice(detail.Members, func(i, j int) bool { return detail.Members[i].ID < detail.Members[j].ID })
	return detail, nil
}

package kafka

import "time"

type BrokerInfo struct {
	ID         int32  `json:"id"`
	Addr       string `json:"addr"`
	Rack       string `json:"rack,omitempty"`
	Controller bool   `json:"controller"`
}

type ClusterInfo struct {
	Brokers      []BrokerInfo `json:"brokers"`
	ControllerID int32        `json:"controllerId"`
}

type TopicInfo struct {
	Name              string `json:"name"`
	Partitions        int32  `json:"partitions"`
	ReplicationFactor int16  `json:"replicationFactor"`
}

type PartitionInfo struct {
	ID           int32   `json:"id"`
	Leader       int32   `json:"leader"`
	Replicas     []int32 `json:"replicas"`
	InSync       []int32 `json:"inSync"`
	OldestOffset int64   `json:"oldestOffset"`
	EndOffset    int64   `json:"endOffset"`
}

// TopicDetail describes one topic with per-partition log boundaries.
// TotalMessages counts retained messages, i.e. the sum of endOffset minus
// oldestOffset across partitions.
type TopicDetail struct {
	Name          string          `json:"name"`
	TotalMessages int64           `json:"totalMessages"`
	Partitions    []PartitionInfo `json:"partitions"`
}

type GroupInfo struct {
	GroupID      string `json:"groupId"`
	State        string `json:"state"`
	ProtocolType string `json:"protocolType"`
	Protocol     string `json:"protocol,omitempty"`
}

type MemberInfo struct {
	ID         string             `json:"id"`
	ClientID   string             `json:"clientId"`
	Host       string             `json:"host"`
	Assignment map[string][]int32 `json:"assignment"`
}

type GroupDetail struct {
	GroupInfo
	Members []MemberInfo `json:"members"`
}

// LagEntry is the lag of one group on one partition. Committed and Lag are
// nil when the group has no committed offset there. EndOffset is -1 when the
// log end could not be fetched.
type LagEntry struct {
	Topic     string `json:"topic"`
	Partition int32  `json:"partition"`
	EndOffset int64  `json:"endOffset"`
	Committed *int64 `json:"committed"`
	Lag       *int64 `json:"lag"`
}

// LagReport aggregates a group's lag across every partition of every topic
// the group has offsets for. Partitions with unknown lag are excluded from
// Total, and Complete is false in that case so callers can present Total as
// a lower bound.
type LagReport struct {
	Group    string     `json:"group"`
	Entries  []LagEntry `json:"entries"`
	Total    int64      `json:"total"`
	Complete bool       `json:"complete"`
}

type TailMessage struct {
	Topic     string    `json:"topic"`
	Partition int32     `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       string    `json:"key,omitempty"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type ProducedMessage struct {
	Partition int32 `json:"partition"`
	Offset    int64 `json:"offset"`
}

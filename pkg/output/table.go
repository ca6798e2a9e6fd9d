// Package output renders the CLI's tables and message payloads.
package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/keaz/kcli/pkg/config"
	"github.com/keaz/kcli/pkg/kafka"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8AB4F8")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F6368"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E8EAED"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA0A6"))
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// Topics renders the topic list.
func Topics(topics []kafka.TopicInfo) string {
	rows := make([][]string, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, []string{
			t.Name,
			strconv.FormatInt(int64(t.Partitions), 10),
			strconv.FormatInt(int64(t.ReplicationFactor), 10),
		})
	}
	return renderTable([]string{"TOPIC", "PARTITIONS", "REPLICATION"}, rows)
}

// TopicDetail renders one topic's partitions with their log boundaries.
func TopicDetail(detail *kafka.TopicDetail) string {
	rows := make([][]string, 0, len(detail.Partitions))
	for _, p := range detail.Partitions {
		rows = append(rows, []string{
			strconv.FormatInt(int64(p.ID), 10),
			strconv.FormatInt(int64(p.Leader), 10),
			fmt.Sprintf("%v", p.Replicas),
			fmt.Sprintf("%v", p.InSync),
			strconv.FormatInt(p.OldestOffset, 10),
			strconv.FormatInt(p.EndOffset, 10),
			strconv.FormatInt(p.EndOffset-p.OldestOffset, 10),
		})
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(detail.Name))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d partitions, %d messages retained", len(detail.Partitions), detail.TotalMessages)))
	b.WriteString("\n")
	b.WriteString(renderTable([]string{"PARTITION", "LEADER", "REPLICAS", "IN-SYNC", "OLDEST", "END", "MESSAGES"}, rows))
	return b.String()
}

// Brokers renders the cluster's broker list. The controller is marked with
// an asterisk.
func Brokers(cluster *kafka.ClusterInfo) string {
	rows := make([][]string, 0, len(cluster.Brokers))
	for _, b := range cluster.Brokers {
		controller := ""
		if b.Controller {
			controller = "*"
		}
		rows = append(rows, []string{
			strconv.FormatInt(int64(b.ID), 10),
			b.Addr,
			b.Rack,
			controller,
		})
	}
	return renderTable([]string{"ID", "ADDRESS", "RACK", "CONTROLLER"}, rows)
}

// Groups renders the consumer group list.
func Groups(groups []kafka.GroupInfo) string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.GroupID, g.State, g.ProtocolType, g.Protocol})
	}
	return renderTable([]string{"GROUP", "STATE", "TYPE", "PROTOCOL"}, rows)
}

// GroupDetail renders one group's state and member assignments.
func GroupDetail(detail *kafka.GroupDetail) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(detail.GroupID))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  state=%s type=%s protocol=%s", detail.State, detail.ProtocolType, detail.Protocol)))
	b.WriteString("\n")

	rows := make([][]string, 0, len(detail.Members))
	for _, m := range detail.Members {
		rows = append(rows, []string{m.ID, m.ClientID, m.Host, assignmentString(m.Assignment)})
	}
	b.WriteString(renderTable([]string{"MEMBER", "CLIENT", "HOST", "ASSIGNMENT"}, rows))
	return b.String()
}

func assignmentString(assignment map[string][]int32) string {
	if len(assignment) == 0 {
		return "-"
	}
	topics := make([]string, 0, len(assignment))
	for topic := range assignment {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	parts := make([]string, 0, len(topics))
	for _, topic := range topics {
		parts = append(parts, fmt.Sprintf("%s%v", topic, assignment[topic]))
	}
	return strings.Join(parts, ", ")
}

// Lag renders a group's per-partition lag. Partitions without a committed
// offset show "-", and when any lag is unknown the total is presented as a
// lower bound.
func Lag(report *kafka.LagReport) string {
	rows := make([][]string, 0, len(report.Entries))
	for _, entry := range report.Entries {
		end := "-"
		if entry.EndOffset >= 0 {
			end = strconv.FormatInt(entry.EndOffset, 10)
		}
		committed, lag := "-", "-"
		if entry.Committed != nil {
			committed = strconv.FormatInt(*entry.Committed, 10)
		}
		if entry.Lag != nil {
			lag = strconv.FormatInt(*entry.Lag, 10)
		}
		rows = append(rows, []string{
			entry.Topic,
			strconv.FormatInt(int64(entry.Partition), 10),
			end,
			committed,
			lag,
		})
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"TOPIC", "PARTITION", "END", "COMMITTED", "LAG"}, rows))
	b.WriteString("\n")
	total := strconv.FormatInt(report.Total, 10)
	if !report.Complete {
		total = ">= " + total
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Total lag: %s", total)))
	if !report.Complete {
		b.WriteString(mutedStyle.Render("  (some partitions have unknown lag)"))
	}
	return b.String()
}

// Environments renders the configured environments. The active one is marked
// with an asterisk.
func Environments(envs []config.Environment) string {
	rows := make([][]string, 0, len(envs))
	for _, env := range envs {
		active := ""
		if env.Default {
			active = "*"
		}
		rows = append(rows, []string{env.Name, strings.Join(env.Brokers, ", "), active})
	}
	return renderTable([]string{"NAME", "BROKERS", "ACTIVE"}, rows)
}

// Produced renders where produced messages landed.
func Produced(produced []kafka.ProducedMessage) string {
	rows := make([][]string, 0, len(produced))
	for _, p := range produced {
		rows = append(rows, []string{
			strconv.FormatInt(int64(p.Partition), 10),
			strconv.FormatInt(p.Offset, 10),
		})
	}
	return renderTable([]string{"PARTITION", "OFFSET"}, rows)
}

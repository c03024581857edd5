package portal

import (
	"context"

	"github.com/uhs/uhs/internal/platform/poller"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
)

// Websocket topics for dashboard refreshes.
const (
	TopicDiagnosis = "diagnosis"
	TopicStockLogs = "stock.logs"
)

var topicRoles = map[string][]string{
	TopicDiagnosis: {session.RoleAdmin, session.RoleDoctor},
	TopicStockLogs: {session.RoleAdmin, session.RoleDoctor, session.RoleAssistant},
}

// AllowTopic lets a session subscribe only to the topics of views its roles
// can open.
func AllowTopic(s *session.Session, topic string) bool {
	roles, ok := topicRoles[topic]
	if !ok {
		return false
	}
	return session.Authorize(s, roles...) == nil
}

// DashboardJobs refetches the open diagnosis and daily-log views.
func DashboardJobs(views *viewstate.Registry) []poller.Job {
	refresh := func(prefix string) func(ctx context.Context) (interface{}, error) {
		return func(ctx context.Context) (interface{}, error) {
			sessions, err := views.RefreshMatching(ctx, prefix)
			return map[string]int{"refreshed": len(sessions)}, err
		}
	}
	return []poller.Job{
		{Name: "diagnosis", Topic: TopicDiagnosis, Run: refresh("diagnosis")},
		{Name: "stock_logs", Topic: TopicStockLogs, Run: refresh("stock-logs")},
	}
}

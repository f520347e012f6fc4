package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	tablePerformance = "user_question_performance"
	tableStreaks     = "user_streaks"
	tableBadges      = "user_badges"
	tableGoals       = "daily_goals"
	tableSessions    = "session_events"
	tableLLMRequests = "llm_request_events"
)

var (
	// PerformanceColumns holds the per-(user, fact) counters.
	PerformanceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "operation", Type: field.TypeString},
		{Name: "num1", Type: field.TypeInt},
		{Name: "num2", Type: field.TypeInt},
		{Name: "answer", Type: field.TypeInt},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "correct_attempts", Type: field.TypeInt, Default: 0},
		{Name: "fast_correct_attempts", Type: field.TypeInt, Default: 0},
		{Name: "consecutive_incorrect", Type: field.TypeInt, Default: 0},
		{Name: "last_attempted_at", Type: field.TypeTime},
	}
	PerformanceTable = &schema.Table{
		Name:       tablePerformance,
		Columns:    PerformanceColumns,
		PrimaryKey: []*schema.Column{PerformanceColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "performance_user_fact",
				Unique:  true,
				Columns: []*schema.Column{PerformanceColumns[1], PerformanceColumns[2], PerformanceColumns[3], PerformanceColumns[4]},
			},
		},
	}

	// StreakColumns holds one row per user.
	StreakColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "current_streak", Type: field.TypeInt, Default: 0},
		{Name: "longest_streak", Type: field.TypeInt, Default: 0},
		{Name: "last_practice_date", Type: field.TypeString, Size: 10},
		{Name: "updated_at", Type: field.TypeTime},
	}
	StreakTable = &schema.Table{
		Name:       tableStreaks,
		Columns:    StreakColumns,
		PrimaryKey: []*schema.Column{StreakColumns[0]},
	}

	// BadgeColumns records which badges a user has been notified about.
	BadgeColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "badge_id", Type: field.TypeString},
		{Name: "earned_at", Type: field.TypeTime},
	}
	BadgeTable = &schema.Table{
		Name:       tableBadges,
		Columns:    BadgeColumns,
		PrimaryKey: []*schema.Column{BadgeColumns[0]},
		Indexes: []*schema.Index{
			{Name: "badge_user_badge", Unique: true, Columns: []*schema.Column{BadgeColumns[1], BadgeColumns[2]}},
		},
	}

	// GoalColumns holds one row per user per calendar day.
	GoalColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "day", Type: field.TypeString, Size: 10},
		{Name: "target", Type: field.TypeInt},
		{Name: "current", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	GoalTable = &schema.Table{
		Name:       tableGoals,
		Columns:    GoalColumns,
		PrimaryKey: []*schema.Column{GoalColumns[0]},
		Indexes: []*schema.Index{
			{Name: "goal_user_day", Unique: true, Columns: []*schema.Column{GoalColumns[1], GoalColumns[2]}},
		},
	}

	// SessionColumns logs completed practice sessions.
	SessionColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "level_id", Type: field.TypeString},
		{Name: "total", Type: field.TypeInt},
		{Name: "correct", Type: field.TypeInt},
		{Name: "duration_ms", Type: field.TypeInt64},
		{Name: "completed_at", Type: field.TypeTime},
	}
	SessionTable = &schema.Table{
		Name:       tableSessions,
		Columns:    SessionColumns,
		PrimaryKey: []*schema.Column{SessionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_user_completed", Columns: []*schema.Column{SessionColumns[2], SessionColumns[7]}},
		},
	}

	// LLMRequestColumns logs every tutor request.
	LLMRequestColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 1 << 20, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 1 << 20, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	LLMRequestTable = &schema.Table{
		Name:       tableLLMRequests,
		Columns:    LLMRequestColumns,
		PrimaryKey: []*schema.Column{LLMRequestColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llm_request_created", Columns: []*schema.Column{LLMRequestColumns[11]}},
		},
	}

	// Tables lists every table created at startup.
	Tables = []*schema.Table{
		PerformanceTable,
		StreakTable,
		BadgeTable,
		GoalTable,
		SessionTable,
		LLMRequestTable,
	}
)

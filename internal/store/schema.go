package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableSessions    = "sessions"
	tableQuestions   = "questions"
	tableResponses   = "response_events"
	tableRiskResults = "risk_results"
	tableLLMEvents   = "llm_request_events"
)

var (
	// sessionsColumns holds the columns for the "sessions" table.
	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "age_group", Type: field.TypeString, Default: ""},
		{Name: "status", Type: field.TypeString, Default: string(StatusActive)},
		{Name: "started_at", Type: field.TypeInt64},
		{Name: "ended_at", Type: field.TypeInt64, Default: 0},
	}
	sessionsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_user_id_started_at", Columns: []*schema.Column{sessionsColumns[1], sessionsColumns[4]}},
		},
	}

	// questionsColumns holds the columns for the "questions" table.
	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "domain", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "options", Type: field.TypeJSON},
		{Name: "correct_option", Type: field.TypeString},
		{Name: "source", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeInt64},
	}
	questionsTable = &schema.Table{
		Name:       tableQuestions,
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "question_session_id_position", Unique: true, Columns: []*schema.Column{questionsColumns[1], questionsColumns[2]}},
		},
	}

	// responsesColumns holds the columns for the "response_events" table.
	responsesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "domain", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
		{Name: "response_time_ms", Type: field.TypeInt},
		{Name: "confidence", Type: field.TypeString, Default: ""},
		{Name: "mistake_type", Type: field.TypeString, Default: ""},
		{Name: "severity", Type: field.TypeString, Default: ""},
		{Name: "answered_at", Type: field.TypeInt64},
	}
	responsesTable = &schema.Table{
		Name:       tableResponses,
		Columns:    responsesColumns,
		PrimaryKey: []*schema.Column{responsesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "response_session_id_sequence", Columns: []*schema.Column{responsesColumns[2], responsesColumns[1]}},
			{Name: "response_question_id", Unique: true, Columns: []*schema.Column{responsesColumns[3]}},
		},
	}

	// riskResultsColumns holds the columns for the "risk_results" table.
	riskResultsColumns = []*schema.Column{
		{Name: "session_id", Type: field.TypeString},
		{Name: "label", Type: field.TypeString},
		{Name: "confidence", Type: field.TypeString},
		{Name: "scores", Type: field.TypeJSON},
		{Name: "insights", Type: field.TypeJSON},
		{Name: "source", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
	}
	riskResultsTable = &schema.Table{
		Name:       tableRiskResults,
		Columns:    riskResultsColumns,
		PrimaryKey: []*schema.Column{riskResultsColumns[0]},
	}

	// llmEventsColumns holds the columns for the "llm_request_events" table.
	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventsColumns[5]}},
		},
	}

	// tables holds every table the store migrates.
	tables = []*schema.Table{
		sessionsTable,
		questionsTable,
		responsesTable,
		riskResultsTable,
		llmEventsTable,
	}
)

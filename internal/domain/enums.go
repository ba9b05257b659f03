package domain

// Category is one of the fixed note groupings shown side by side in a project.
type Category string

const (
	CategoryIdea     Category = "IDEA"
	CategoryTask     Category = "TASK"
	CategoryDecision Category = "DECISION"
	CategoryRisk     Category = "RISK"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryIdea, CategoryTask, CategoryDecision, CategoryRisk}
}

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryIdea, CategoryTask, CategoryDecision, CategoryRisk:
		return true
	}
	return false
}

// CommandKind tags the three reversible mutations.
type CommandKind string

const (
	CommandCreate CommandKind = "CREATE"
	CommandUpdate CommandKind = "UPDATE"
	CommandDelete CommandKind = "DELETE"
)

func (k CommandKind) String() string { return string(k) }

func (k CommandKind) IsValid() bool {
	switch k {
	case CommandCreate, CommandUpdate, CommandDelete:
		return true
	}
	return false
}

// ConnectionStatus is the state of the change feed subscription.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "CONNECTING"
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
	StatusError        ConnectionStatus = "ERROR"
)

func (s ConnectionStatus) String() string { return string(s) }

func (s ConnectionStatus) IsValid() bool {
	switch s {
	case StatusConnecting, StatusConnected, StatusDisconnected, StatusError:
		return true
	}
	return false
}

// ChangeOp is the operation reported by a change feed event.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "INSERT"
	ChangeUpdate ChangeOp = "UPDATE"
	ChangeDelete ChangeOp = "DELETE"
)

func (o ChangeOp) String() string { return string(o) }

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionRestore AuditAction = "RESTORE"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionRestore:
		return true
	}
	return false
}

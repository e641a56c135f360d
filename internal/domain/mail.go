package domain

const (
	MailTypeCreateUser    = "create_user"
	MailTypeSolveFinished = "solve_finished"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SolveFinishedMailData struct {
	FullName    string `json:"fullName"`
	RunID       string `json:"runID"`
	HardScore   int64  `json:"hardScore"`
	SoftScore   int64  `json:"softScore"`
	Unassigned  int    `json:"unassigned"`
	Termination string `json:"termination"`
}

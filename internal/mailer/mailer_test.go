package mailer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
)

func marshal(t *testing.T, msg domain.MailMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestRender_CreateUser(t *testing.T) {
	body := marshal(t, domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "zhangsan@example.com",
		Data: domain.CreateUserMailData{FullName: "张三", Username: "zhangs1", Password: "p<w>d"},
	})

	r, err := Render(body)
	require.NoError(t, err)
	assert.Equal(t, "zhangsan@example.com", r.To)
	assert.Equal(t, "任务规划系统 - 账户信息", r.Subject)
	assert.Contains(t, r.Body, "张三")
	assert.Contains(t, r.Body, "zhangs1")
	// html/template 会转义特殊字符
	assert.Contains(t, r.Body, "p&lt;w&gt;d")
}

func TestRender_SolveFinished(t *testing.T) {
	body := marshal(t, domain.MailMessage{
		Type: domain.MailTypeSolveFinished,
		To:   "lisi@example.com",
		Data: domain.SolveFinishedMailData{FullName: "李四", RunID: "run-1", HardScore: 2, SoftScore: 30, Unassigned: 1, Termination: "Plateau"},
	})

	r, err := Render(body)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "run-1")
	assert.Contains(t, r.Body, "Plateau")
	assert.Contains(t, r.Body, "仍然违反硬约束")

	m, err := r.Build("planner@example.com")
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestRender_Errors(t *testing.T) {
	_, err := Render([]byte("not json"))
	assert.Error(t, err)

	_, err = Render(marshal(t, domain.MailMessage{Type: "reset_password", To: "a@example.com"}))
	assert.ErrorContains(t, err, "不支持的邮件类型")
}

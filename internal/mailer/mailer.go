package mailer

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// envelope 与 domain.MailMessage 对应，Data 延迟到确定类型之后再解析
type envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type kind struct {
	subject  string
	template string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeCreateUser: {
		subject:  "任务规划系统 - 账户信息",
		template: "create_user.html",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailTypeSolveFinished: {
		subject:  "任务规划系统 - 求解完成",
		template: "solve_finished.html",
		data:     func() any { return &domain.SolveFinishedMailData{} },
	},
}

// Rendered 是渲染好的邮件内容
type Rendered struct {
	To      string
	Subject string
	Body    string
}

// Render 解析队列中的消息并渲染邮件正文，未知的邮件类型会返回错误
func Render(body []byte) (*Rendered, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	k, ok := kinds[env.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型 %q", env.Type)
	}

	data := k.data()
	if err := json.Unmarshal(env.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, k.template, data); err != nil {
		return nil, fmt.Errorf("无法渲染邮件模板: %w", err)
	}

	return &Rendered{To: env.To, Subject: k.subject, Body: buf.String()}, nil
}

// Build 把渲染结果转换成可以发送的邮件
func (r *Rendered) Build(from string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(r.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	m.Subject(r.Subject)
	m.SetBodyString(mail.TypeTextHTML, r.Body)

	return m, nil
}

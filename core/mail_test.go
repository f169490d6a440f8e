package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recLogger struct {
	errors []string
}

func (l *recLogger) Debug(string, ...interface{}) {}
func (l *recLogger) Info(string, ...interface{})  {}
func (l *recLogger) Warn(string, ...interface{})  {}
func (l *recLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}
func (l *recLogger) Fatal(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func TestParseEmailTemplates(t *testing.T) {
	logger := new(recLogger)
	ParseEmailTemplates(NewTestConfig(), logger)
	require.Empty(t, logger.errors)

	for _, name := range []string{"welcome", "submission_reviewed"} {
		t.Run(name, func(t *testing.T) {
			entry, ok := templates[name]
			require.True(t, ok, "%s not cached", name)
			assert.Contains(t, entry, ".txt")
			assert.Contains(t, entry, ".gohtml")
		})
	}
	assert.NotContains(t, templates, "_base")
}

func TestEmailMessage_Render(t *testing.T) {
	ParseEmailTemplates(NewTestConfig(), new(recLogger))

	msg := &EmailMessage{
		TemplateName: "welcome",
		TemplateData: struct{ Name, Email string }{Name: "Wanjiku", Email: "wanjiku@test.cd"},
	}
	require.NoError(t, msg.Render())
	assert.Contains(t, msg.TextContent, "Hello Wanjiku,")
	assert.Contains(t, msg.TextContent, "wanjiku@test.cd")
	assert.Contains(t, msg.HTMLContent, "Wanjiku")

	missing := &EmailMessage{TemplateName: "lol"}
	assert.EqualError(t, missing.Render(), `email template "lol.txt" not found`)
}

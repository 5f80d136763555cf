package notify

import (
	"testing"

	"tombola/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = &models.Player{ID: "alice", Name: "Alice", DisplayName: "Alice", Email: "alice@example.com"}
	bob   = &models.Player{ID: "bob", Name: "Bob", Disambiguation: "uncle", DisplayName: "Bob (uncle)", Phone: "0600000000"}
)

const mailSource = `---
subject: "Secret Santa: {{player.name}}"
to: "{{player.displayName}} <{{player.email}}>"
headers:
  list:
    - "{{target.displayName}}"
---

Hello {{player.name}}, you give to **{{target.displayName}}**.

{{#each players}}- {{displayName}}
{{/each}}`

func TestCompileMailTemplate(t *testing.T) {
	tpl, err := CompileMailTemplate(mailSource)
	require.NoError(t, err)

	msg, err := tpl.Render(Context{Player: alice, Target: bob, Players: []*models.Player{alice, bob}})
	require.NoError(t, err)

	assert.Equal(t, "Secret Santa: Alice", msg.Subject)
	assert.Equal(t, "Alice <alice@example.com>", msg.To)
	assert.Contains(t, msg.Markdown, "Hello Alice, you give to **Bob (uncle)**.")
	assert.Contains(t, msg.Markdown, "- Alice\n- Bob (uncle)\n")
	assert.Empty(t, msg.Text)
}

func TestCompileMailTemplatePlainText(t *testing.T) {
	tpl, err := CompileMailTemplate("---\nmarkdown: false\nsubject: Hi\n---\nJust text for {{player.name}}")
	require.NoError(t, err)

	msg, err := tpl.Render(Context{Player: alice})
	require.NoError(t, err)

	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "Just text for Alice", msg.Text)
	assert.Empty(t, msg.Markdown)
}

func TestCompileMailTemplateWithoutFrontMatter(t *testing.T) {
	tpl, err := CompileMailTemplate("Hello {{player.name}}")
	require.NoError(t, err)

	msg, err := tpl.Render(Context{Player: alice})
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice", msg.Markdown)
}

func TestCompileMailTemplateErrors(t *testing.T) {
	_, err := CompileMailTemplate("---\nsubject: open\nno closing delimiter")
	assert.Error(t, err)

	_, err = CompileMailTemplate("---\nsubject: \"{{#if x}}unclosed\"\n---\nbody")
	assert.Error(t, err)
}

func TestRenderWithoutTarget(t *testing.T) {
	tpl, err := CompileTextTemplate("{{player.name}}{{#if target}} gives to {{target.name}}{{/if}}")
	require.NoError(t, err)

	out, err := tpl.Render(Context{Player: alice})
	require.NoError(t, err)
	assert.Equal(t, "Alice", out)

	out, err = tpl.Render(Context{Player: alice, Target: bob})
	require.NoError(t, err)
	assert.Equal(t, "Alice gives to Bob", out)
}

package expand

import (
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/token"
)

// Workspace bundles everything one model-parse session produces: the symbol
// environment, the token registry backing the parsed equation bodies, the
// pending templates, and the concrete equations and objective that expansion
// yields. A single thread owns a workspace for its whole lifetime.
type Workspace struct {
	Model         *model.Model
	Tokens        *token.Manager
	Templates     []*Template
	Equations     []*LinearEquation
	ObjectiveSpec *ObjectiveSpec
	Objective     *Objective
}

// NewWorkspace creates an empty session workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		Model:  model.New(),
		Tokens: token.NewManager(),
	}
}

// Clear resets the workspace between independent parses.
func (ws *Workspace) Clear() {
	ws.Model.Clear()
	ws.Tokens.Clear()
	ws.Templates = nil
	ws.Equations = nil
	ws.ObjectiveSpec = nil
	ws.Objective = nil
}

// UnexpandedTemplates returns templates that have not reached a terminal
// Expanded state. Export is blocked while any remain.
func (ws *Workspace) UnexpandedTemplates() []*Template {
	var out []*Template
	for _, t := range ws.Templates {
		if t.State != Expanded {
			out = append(out, t)
		}
	}
	return out
}

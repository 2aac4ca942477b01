// Package router selects a backend model for each incoming task.
//
// The selection policy is a declarative ordered rule table: the first rule
// whose predicate matches the task supplies the candidate selector. Each
// selector falls back preferred-role → type/capability match, and Route
// itself falls back to the first active model, so a non-empty active
// catalog always routes.
package router

import (
	"errors"
	"fmt"

	"github.com/bwengye/bwengye/internal/catalog"
	"github.com/bwengye/bwengye/internal/models"
)

// ErrNoModelAvailable indicates an empty or all-inactive catalog.
var ErrNoModelAvailable = errors.New("router: no active model available")

// Task describes one unit of routable work.
type Task struct {
	Type          string // chat, text, code, reasoning, analysis, image, audio, speech
	Complexity    string // low, medium, high
	Priority      string // normal, fast
	ContentLength int
}

// Decision is the outcome of routing one task.
type Decision struct {
	Model    models.AIModel
	Rule     string // name of the matched rule, for observability
	Reason   string
	Estimate Estimate
}

// selector picks a candidate from the active catalog, or nil when no model
// satisfies the rule's constraint.
type selector func(active []models.AIModel, roles catalog.Roles) *models.AIModel

// rule pairs a task predicate with a candidate selector.
type rule struct {
	name  string
	match func(Task) bool
	pick  selector
}

// rules is the routing policy, evaluated in order, first match wins.
var rules = []rule{
	{
		name:  "chat-fast",
		match: func(t Task) bool { return isChat(t.Type) && (t.Priority == "fast" || t.Complexity == "low") },
		pick:  roleOr(roleFast, byModelType("chat")),
	},
	{
		name:  "chat-complex",
		match: func(t Task) bool { return isChat(t.Type) && (t.Complexity == "high" || t.ContentLength > 5000) },
		pick:  roleOr(roleFlagship, byModelType("chat")),
	},
	{
		name:  "chat-balanced",
		match: func(t Task) bool { return isChat(t.Type) },
		pick:  roleOr(roleFast, byModelType("chat")),
	},
	{
		name:  "code",
		match: func(t Task) bool { return t.Type == "code" },
		pick:  roleOr(roleCode, byCapability("code")),
	},
	{
		name:  "reasoning",
		match: func(t Task) bool { return t.Type == "reasoning" || t.Type == "analysis" },
		pick:  roleOr(roleReasoning, roleOr(roleFlagship, byModelType("chat"))),
	},
	{
		name:  "image",
		match: func(t Task) bool { return t.Type == "image" },
		pick:  byModelType("image"),
	},
	{
		name:  "audio",
		match: func(t Task) bool { return t.Type == "audio" || t.Type == "speech" },
		pick:  byModelType("audio"),
	},
	{
		name:  "default",
		match: func(t Task) bool { return true },
		pick:  roleOr(roleFast, byModelType("chat")),
	},
}

// Route picks a model for the task from the active catalog. It fails only
// when the active catalog is empty; a candidate miss inside a rule falls
// back to the first active model, and the caller is then responsible for
// detecting a model-type mismatch from the returned model's metadata.
func Route(task Task, active []models.AIModel, roles catalog.Roles) (*Decision, error) {
	if len(active) == 0 {
		return nil, ErrNoModelAvailable
	}
	task = task.normalized()

	matched := rules[len(rules)-1]
	for _, r := range rules {
		if r.match(task) {
			matched = r
			break
		}
	}

	m := matched.pick(active, roles)
	if m == nil {
		m = &active[0]
	}

	return &Decision{
		Model:    *m,
		Rule:     matched.name,
		Reason:   fmt.Sprintf("Selected %s for %s task with %s complexity", m.Name, task.Type, task.Complexity),
		Estimate: EstimateFor(task, m),
	}, nil
}

// normalized applies field defaults.
func (t Task) normalized() Task {
	if t.Type == "" {
		t.Type = "chat"
	}
	if t.Complexity == "" {
		t.Complexity = "medium"
	}
	if t.Priority == "" {
		t.Priority = "normal"
	}
	return t
}

func isChat(taskType string) bool {
	return taskType == "chat" || taskType == "text"
}

// Role accessors, shaped so roleOr can treat roles uniformly.

func roleFast(r catalog.Roles) *models.AIModel      { return r.Fast }
func roleFlagship(r catalog.Roles) *models.AIModel  { return r.Flagship }
func roleCode(r catalog.Roles) *models.AIModel      { return r.Code }
func roleReasoning(r catalog.Roles) *models.AIModel { return r.Reasoning }

// roleOr prefers the designated role model and falls back to the given
// selector when the role is unclaimed.
func roleOr(role func(catalog.Roles) *models.AIModel, fallback selector) selector {
	return func(active []models.AIModel, roles catalog.Roles) *models.AIModel {
		if m := role(roles); m != nil {
			return m
		}
		return fallback(active, roles)
	}
}

// byModelType selects the first active model of the given type.
func byModelType(modelType string) selector {
	return func(active []models.AIModel, _ catalog.Roles) *models.AIModel {
		for i := range active {
			if active[i].ModelType == modelType {
				return &active[i]
			}
		}
		return nil
	}
}

// byCapability selects the first active model carrying the given tag.
func byCapability(tag string) selector {
	return func(active []models.AIModel, _ catalog.Roles) *models.AIModel {
		for i := range active {
			if active[i].HasCapability(tag) {
				return &active[i]
			}
		}
		return nil
	}
}

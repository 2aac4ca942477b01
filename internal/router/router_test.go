package router

import (
	"errors"
	"testing"

	"github.com/bwengye/bwengye/internal/catalog"
	"github.com/bwengye/bwengye/internal/models"
)

// testCatalog mirrors a realistic seeded catalog: fast default, flagship,
// reasoning model, plus image and audio entries.
func testCatalog() []models.AIModel {
	return []models.AIModel{
		{Name: "flux-schnell", ModelType: "image", IsActive: true},
		{Name: "gpt-5-2025-08-07", ModelType: "chat", IsActive: true, Capabilities: `["chat","code","flagship"]`, CostPerToken: 0.00003},
		{Name: "gpt-5-mini-2025-08-07", ModelType: "chat", IsActive: true, Capabilities: `["chat","fast"]`, CostPerToken: 0.000002},
		{Name: "o3-2025-04-16", ModelType: "chat", IsActive: true, Capabilities: `["chat","reasoning"]`, CostPerToken: 0.00006},
		{Name: "whisper-1", ModelType: "audio", IsActive: true},
	}
}

func route(t *testing.T, task Task) *Decision {
	t.Helper()
	active := testCatalog()
	d, err := Route(task, active, catalog.ResolveRoles(active))
	if err != nil {
		t.Fatalf("Route(%+v): %v", task, err)
	}
	return d
}

func TestRoute_Policy(t *testing.T) {
	tests := []struct {
		name      string
		task      Task
		wantModel string
		wantRule  string
	}{
		{
			name:      "fast priority chat",
			task:      Task{Type: "chat", Priority: "fast"},
			wantModel: "gpt-5-mini-2025-08-07",
			wantRule:  "chat-fast",
		},
		{
			name:      "low complexity text",
			task:      Task{Type: "text", Complexity: "low"},
			wantModel: "gpt-5-mini-2025-08-07",
			wantRule:  "chat-fast",
		},
		{
			name:      "high complexity chat",
			task:      Task{Type: "chat", Complexity: "high"},
			wantModel: "gpt-5-2025-08-07",
			wantRule:  "chat-complex",
		},
		{
			name:      "long content chat",
			task:      Task{Type: "chat", ContentLength: 6000},
			wantModel: "gpt-5-2025-08-07",
			wantRule:  "chat-complex",
		},
		{
			name:      "balanced chat",
			task:      Task{Type: "chat"},
			wantModel: "gpt-5-mini-2025-08-07",
			wantRule:  "chat-balanced",
		},
		{
			name:      "code",
			task:      Task{Type: "code"},
			wantModel: "gpt-5-2025-08-07",
			wantRule:  "code",
		},
		{
			name:      "reasoning",
			task:      Task{Type: "reasoning"},
			wantModel: "o3-2025-04-16",
			wantRule:  "reasoning",
		},
		{
			name:      "analysis",
			task:      Task{Type: "analysis"},
			wantModel: "o3-2025-04-16",
			wantRule:  "reasoning",
		},
		{
			name:      "image",
			task:      Task{Type: "image"},
			wantModel: "flux-schnell",
			wantRule:  "image",
		},
		{
			name:      "audio",
			task:      Task{Type: "audio"},
			wantModel: "whisper-1",
			wantRule:  "audio",
		},
		{
			name:      "speech",
			task:      Task{Type: "speech"},
			wantModel: "whisper-1",
			wantRule:  "audio",
		},
		{
			name:      "unrecognized type falls back to balanced chat",
			task:      Task{Type: "interpretive-dance"},
			wantModel: "gpt-5-mini-2025-08-07",
			wantRule:  "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := route(t, tt.task)
			if d.Model.Name != tt.wantModel {
				t.Errorf("model = %s, want %s", d.Model.Name, tt.wantModel)
			}
			if d.Rule != tt.wantRule {
				t.Errorf("rule = %s, want %s", d.Rule, tt.wantRule)
			}
			if !d.Model.IsActive {
				t.Errorf("selected inactive model %s", d.Model.Name)
			}
			if d.Reason == "" {
				t.Error("decision has no rationale")
			}
		})
	}
}

func TestRoute_AlwaysActive(t *testing.T) {
	// For any task type, the selected model must be active.
	active := testCatalog()
	roles := catalog.ResolveRoles(active)
	for _, taskType := range []string{"chat", "text", "code", "reasoning", "analysis", "image", "audio", "speech", "other", ""} {
		d, err := Route(Task{Type: taskType}, active, roles)
		if err != nil {
			t.Fatalf("Route(%q): %v", taskType, err)
		}
		if !d.Model.IsActive {
			t.Errorf("Route(%q) selected inactive model %s", taskType, d.Model.Name)
		}
	}
}

func TestRoute_EmptyCatalog(t *testing.T) {
	_, err := Route(Task{Type: "chat"}, nil, catalog.Roles{})
	if !errors.Is(err, ErrNoModelAvailable) {
		t.Errorf("err = %v, want ErrNoModelAvailable", err)
	}
}

func TestRoute_CodeRequiresCapability(t *testing.T) {
	active := testCatalog()
	roles := catalog.ResolveRoles(active)
	d, err := Route(Task{Type: "code"}, active, roles)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !d.Model.HasCapability("code") {
		t.Errorf("code task selected %s without code capability", d.Model.Name)
	}
}

func TestRoute_CodeFallsBackWithoutTaggedModel(t *testing.T) {
	// No model tagged code: first active model wins and the caller is left
	// to inspect the returned metadata.
	active := []models.AIModel{
		{Name: "plain-chat", ModelType: "chat", IsActive: true, Capabilities: `["chat"]`},
	}
	d, err := Route(Task{Type: "code"}, active, catalog.ResolveRoles(active))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.Model.Name != "plain-chat" {
		t.Errorf("model = %s, want plain-chat fallback", d.Model.Name)
	}
}

func TestRoute_RolelessCatalogFallsBackToType(t *testing.T) {
	// No role tags at all: chat rules fall back to the first chat-type model.
	active := []models.AIModel{
		{Name: "tts-1", ModelType: "audio", IsActive: true},
		{Name: "generic-chat", ModelType: "chat", IsActive: true},
	}
	d, err := Route(Task{Type: "chat", Priority: "fast"}, active, catalog.ResolveRoles(active))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.Model.Name != "generic-chat" {
		t.Errorf("model = %s, want generic-chat", d.Model.Name)
	}
}

func TestRoute_ImageWithoutImageModel(t *testing.T) {
	active := []models.AIModel{
		{Name: "generic-chat", ModelType: "chat", IsActive: true},
	}
	d, err := Route(Task{Type: "image"}, active, catalog.ResolveRoles(active))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	// Falls back to first active; model-type mismatch is the caller's to detect.
	if d.Model.Name != "generic-chat" {
		t.Errorf("model = %s, want generic-chat", d.Model.Name)
	}
}

func TestRoute_NormalizesDefaults(t *testing.T) {
	d := route(t, Task{})
	if d.Model.ModelType != "chat" {
		t.Errorf("empty task should route to a chat model, got %s", d.Model.ModelType)
	}
	if d.Reason == "" || d.Rule == "" {
		t.Error("normalized task should still produce rationale and rule name")
	}
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/bwengye/bwengye/internal/analytics"
	"github.com/bwengye/bwengye/internal/catalog"
	"github.com/bwengye/bwengye/internal/chat"
	"github.com/bwengye/bwengye/internal/inference"
	"github.com/bwengye/bwengye/internal/metrics"
	"github.com/bwengye/bwengye/internal/models"
	"github.com/bwengye/bwengye/internal/router"
)

// registerRoutes sets up all routes on the Gin engine.
func (s *Server) registerRoutes() {
	s.engine.Use(corsMiddleware())
	s.engine.Use(metricsMiddleware())

	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := s.engine.Group("/", s.authMiddleware())
	authed.POST("/chat", s.handleChat)
	authed.POST("/route", s.handleRoute)
	authed.POST("/analytics", s.handleAnalytics)
	authed.POST("/image", s.handleImage)
	authed.GET("/conversations", s.handleListConversations)
	authed.GET("/conversations/:id/messages", s.handleConversationMessages)
}

// writeError maps application errors to HTTP responses. Clients get a
// generic message; the detail goes to the server log.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	default:
		fmt.Fprintf(s.out, "server: %s %s: %v\n", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	ModelName      string `json:"modelName"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := s.orchestrator.Chat(c.Request.Context(), chat.Request{
		UserID:         currentUser(c),
		Message:        req.Message,
		ConversationID: req.ConversationID,
		ModelName:      req.ModelName,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	metrics.UpstreamLatency.WithLabelValues(res.Model).Observe(float64(res.ProcessingTimeMS) / 1000)
	metrics.TokensUsed.WithLabelValues(res.Model).Add(float64(res.TokensUsed))
	if !res.Saved {
		metrics.UnsavedReplies.Inc()
	}

	c.JSON(http.StatusOK, res)
}

type routeRequest struct {
	TaskType        string                 `json:"taskType"`
	Complexity      string                 `json:"complexity"`
	Priority        string                 `json:"priority"`
	Content         string                 `json:"content"`
	UserPreferences map[string]interface{} `json:"userPreferences"`
}

type routeResponse struct {
	SelectedModel selectedModel   `json:"selectedModel"`
	Routing       routingInfo     `json:"routing"`
	Estimates     router.Estimate `json:"estimates"`
	UserContext   userContext     `json:"userContext"`
}

type selectedModel struct {
	Name          string                 `json:"name"`
	Provider      string                 `json:"provider"`
	ModelType     string                 `json:"modelType"`
	Capabilities  []string               `json:"capabilities"`
	MaxTokens     int                    `json:"maxTokens"`
	Configuration map[string]interface{} `json:"configuration"`
}

type routingInfo struct {
	TaskType   string `json:"taskType"`
	Complexity string `json:"complexity"`
	Priority   string `json:"priority"`
	Reason     string `json:"reason"`
}

type userContext struct {
	LanguagePreference string                 `json:"languagePreference"`
	Preferences        map[string]interface{} `json:"preferences"`
}

func (s *Server) handleRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	active, err := s.catalog.ListActive(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	task := router.Task{
		Type:          req.TaskType,
		Complexity:    req.Complexity,
		Priority:      req.Priority,
		ContentLength: len(req.Content),
	}
	decision, err := router.Route(task, active, catalog.ResolveRoles(active))
	if err != nil {
		s.writeError(c, err)
		return
	}
	metrics.RoutingDecisions.WithLabelValues(decision.Model.Name, req.TaskType).Inc()

	userID := currentUser(c)
	ctx := s.loadUserContext(c, userID, req.UserPreferences)

	if s.sink != nil {
		s.sink.Emit(analytics.Event{
			UserID:    userID,
			EventType: analytics.EventRouting,
			Data: map[string]interface{}{
				"task_type":        orDefault(req.TaskType, "chat"),
				"complexity":       orDefault(req.Complexity, "medium"),
				"priority":         orDefault(req.Priority, "normal"),
				"selected_model":   decision.Model.Name,
				"reason":           decision.Reason,
				"estimated_tokens": decision.Estimate.Tokens,
				"estimated_cost":   decision.Estimate.Cost,
			},
		})
	}

	c.JSON(http.StatusOK, routeResponse{
		SelectedModel: selectedModel{
			Name:          decision.Model.Name,
			Provider:      decision.Model.Provider,
			ModelType:     decision.Model.ModelType,
			Capabilities:  decision.Model.CapabilityList(),
			MaxTokens:     decision.Model.MaxTokens,
			Configuration: decision.Model.ConfigMap(),
		},
		Routing: routingInfo{
			TaskType:   orDefault(req.TaskType, "chat"),
			Complexity: orDefault(req.Complexity, "medium"),
			Priority:   orDefault(req.Priority, "normal"),
			Reason:     decision.Reason,
		},
		Estimates:   decision.Estimate,
		UserContext: ctx,
	})
}

// loadUserContext merges the stored profile with preferences supplied on
// the request; request values win. A missing profile yields defaults.
func (s *Server) loadUserContext(c *gin.Context, userID string, reqPrefs map[string]interface{}) userContext {
	ctx := userContext{LanguagePreference: "en", Preferences: map[string]interface{}{}}

	var profile models.Profile
	err := s.db.WithContext(c.Request.Context()).First(&profile, "user_id = ?", userID).Error
	if err == nil {
		if profile.LanguagePreference != "" {
			ctx.LanguagePreference = profile.LanguagePreference
		}
		if profile.Preferences != "" {
			var stored map[string]interface{}
			if json.Unmarshal([]byte(profile.Preferences), &stored) == nil {
				ctx.Preferences = stored
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Fprintf(s.out, "server: load profile for %s: %v\n", userID, err)
	}

	for k, v := range reqPrefs {
		ctx.Preferences[k] = v
	}
	return ctx
}

type analyticsRequest struct {
	Action    string                 `json:"action"`
	TimeRange string                 `json:"timeRange"`
	EventType string                 `json:"eventType"`
	EventData map[string]interface{} `json:"eventData"`
	SessionID string                 `json:"sessionId"`
}

func (s *Server) handleAnalytics(c *gin.Context) {
	var req analyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	switch req.Action {
	case "get_dashboard":
		dashboard, err := analytics.GetDashboard(c.Request.Context(), s.db, currentUser(c), req.TimeRange)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)

	case "log_event":
		if req.EventType == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "eventType is required"})
			return
		}
		if s.sink != nil {
			s.sink.Emit(analytics.Event{
				UserID:    currentUser(c),
				EventType: req.EventType,
				Data:      req.EventData,
				SessionID: req.SessionID,
			})
		}
		c.JSON(http.StatusOK, gin.H{"success": true})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}

type imageRequest struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

func (s *Server) handleImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	start := time.Now()
	res, err := s.provider.GenerateImage(c.Request.Context(), inference.ImageRequest{
		Prompt:  req.Prompt,
		Size:    req.Size,
		Quality: req.Quality,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	processingMS := int(time.Since(start).Milliseconds())

	if s.sink != nil {
		s.sink.Emit(analytics.Event{
			UserID:    currentUser(c),
			EventType: analytics.EventImageGeneration,
			Data: map[string]interface{}{
				"model":              res.Model,
				"prompt_length":      len(req.Prompt),
				"processing_time_ms": processingMS,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"image":          res.ImageDataURL,
		"provider":       "openai",
		"model":          res.Model,
		"processingTime": processingMS,
		"tokensUsed":     res.TokensUsed,
	})
}

func (s *Server) handleListConversations(c *gin.Context) {
	convs, err := s.orchestrator.ListConversations(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (s *Server) handleConversationMessages(c *gin.Context) {
	msgs, err := s.orchestrator.History(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		entry := gin.H{
			"id":        m.ID,
			"role":      m.Role,
			"content":   m.Content,
			"createdAt": m.CreatedAt,
		}
		if m.Role == models.RoleAssistant {
			entry["modelUsed"] = m.ModelUsed
			entry["tokensUsed"] = m.TokensUsed
			entry["processingTime"] = m.ProcessingTimeMS
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

package internal

import (
	"context"
	"net/http"
)

// SkillRegistry is the read-only view of the agent's capability registry.
type SkillRegistry interface {
	Skills(ctx context.Context) ([]Skill, error)
}

// IntegrationRegistry is the read-only view of the agent's connected
// integration servers.
type IntegrationRegistry interface {
	Integrations(ctx context.Context) ([]Integration, error)
}

// Skills implements SkillRegistry against the agent REST API.
func (a *AgentClient) Skills(ctx context.Context) ([]Skill, error) {
	var out []Skill
	if err := a.do(ctx, http.MethodGet, "/skills", nil, &out, a.client); err != nil {
		return nil, err
	}
	return out, nil
}

// Integrations implements IntegrationRegistry against the agent REST API.
func (a *AgentClient) Integrations(ctx context.Context) ([]Integration, error) {
	var out []Integration
	if err := a.do(ctx, http.MethodGet, "/integrations", nil, &out, a.client); err != nil {
		return nil, err
	}
	return out, nil
}

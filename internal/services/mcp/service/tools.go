package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative/internal/services/mcp/domain"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResourceTemplate(*mcp.ResourceTemplate, mcp.ResourceHandler)
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResourceTemplate(resourceTemplate *mcp.ResourceTemplate, handler mcp.ResourceHandler) {
	r.server.AddResourceTemplate(resourceTemplate, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.EncounterCreateInput, domain.EncounterResult](),
	newMCPToolRegistrar[domain.EncounterGetInput, domain.EncounterResult](),
	newMCPToolRegistrar[domain.EncounterListInput, domain.EncounterListResult](),
	newMCPToolRegistrar[domain.CharacterPutInput, domain.CharacterResult](),
	newMCPToolRegistrar[domain.CommandInput, domain.EncounterResult](),
	newMCPToolRegistrar[domain.QueueInput, domain.QueueResult](),
	newMCPToolRegistrar[domain.TimelineInput, domain.TimelineResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func registerEncounterTools(registrar mcpRegistrationTarget, client domain.InitiativeClient, notify domain.ResourceUpdateNotifier) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.EncounterCreateTool(), handler: domain.EncounterCreateHandler(client, notify)},
		{tool: domain.EncounterGetTool(), handler: domain.EncounterGetHandler(client)},
		{tool: domain.EncounterListTool(), handler: domain.EncounterListHandler(client)},
		{tool: domain.CharacterPutTool(), handler: domain.CharacterPutHandler(client)},
	}
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerCommandTools(registrar mcpRegistrationTarget, client domain.InitiativeClient, notify domain.ResourceUpdateNotifier) error {
	for _, command := range domain.CommandTools() {
		if err := registrar.AddTool(command.Tool, domain.CommandHandler(client, command.Command, notify)); err != nil {
			return err
		}
	}
	return nil
}

func registerViewTools(registrar mcpRegistrationTarget, client domain.InitiativeClient) error {
	if err := registrar.AddTool(domain.QueueTool(), domain.QueueHandler(client)); err != nil {
		return err
	}
	return registrar.AddTool(domain.TimelineTool(), domain.TimelineHandler(client))
}

func registerTimelineResources(registrar mcpRegistrationTarget, client domain.InitiativeClient) {
	registrar.AddResourceTemplate(domain.TimelineResourceTemplate(), domain.TimelineResourceHandler(client))
}

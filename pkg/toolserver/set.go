package toolserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// Set routes tool uses to the server that offered the tool.
type Set struct {
	clients []*Client
	byTool  map[string]*Client
}

// NewSet groups connected clients.
func NewSet(clients ...*Client) *Set {
	return &Set{clients: clients, byTool: make(map[string]*Client)}
}

// Tools lists the tools of every server in order. Two servers offering
// the same tool name is an error since a tool use could not be routed.
func (s *Set) Tools(ctx context.Context) ([]provider.Tool, error) {
	var out []provider.Tool
	for _, c := range s.clients {
		tools, err := c.Tools(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tools {
			if prev, ok := s.byTool[t.Name]; ok && prev != c {
				return nil, fmt.Errorf("tool %q offered by both %q and %q", t.Name, prev.Name(), c.Name())
			}
			s.byTool[t.Name] = c
			out = append(out, t)
		}
	}
	return out, nil
}

// Resolve runs every ToolUseBlock in blocks, in order. Tools must have
// been listed first.
func (s *Set) Resolve(ctx context.Context, blocks []api.Block) ([]api.ToolResultBlock, error) {
	var out []api.ToolResultBlock
	for _, b := range blocks {
		use, ok := b.(api.ToolUseBlock)
		if !ok {
			continue
		}
		c, ok := s.byTool[use.Name]
		if !ok {
			return out, fmt.Errorf("no tool server offers %q", use.Name)
		}
		res, err := c.Resolve(ctx, use)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Close ends every session.
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.clients {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

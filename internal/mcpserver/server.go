// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Dagaz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/search"
	"github.com/starford/dagaz/internal/store"
)

// Server wraps the MCP server with Dagaz tools. Write tools go through the
// same store operations as the UI, so titles and ordering behave the same.
type Server struct {
	mcp *server.MCPServer
	db  *store.DB
	ix  *search.Index
}

// New creates a new MCP server with all Dagaz tools registered.
func New(db *store.DB, ix *search.Index) *Server {
	s := &Server{db: db, ix: ix}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by text and/or #tag. Returns matching note ids with titles."),
		mcp.WithString("query", mcp.Description("Case-insensitive substring of title or content")),
		mcp.WithString("tag", mcp.Description("Tag token without the leading #")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. With no title, the first content line becomes the title."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content; #tags in the text are indexed")),
		mcp.WithString("title", mcp.Description("Optional explicit title")),
		mcp.WithNumber("parent_id", mcp.Description("Folder to file the note under (0 or absent for root)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("note_tree",
		mcp.WithDescription("Return the full folder/note tree as JSON, without note content."),
	), s.noteTree)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks of a task list, in display order."),
		mcp.WithNumber("list_id", mcp.Required(), mcp.Description("Task list id")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Append an open task to a task list."),
		mcp.WithNumber("list_id", mcp.Required(), mcp.Description("Task list id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Task text")),
	), s.addTask)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	tag := req.GetString("tag", "")
	ids, err := s.ix.Search(query, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type hit struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	hits := make([]hit, 0, len(ids))
	matched := make(map[int64]bool, len(ids))
	for _, id := range ids {
		matched[id] = true
	}
	notes, err := s.db.Notes()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, n := range notes {
		if matched[n.ID] {
			hits = append(hits, hit{ID: n.ID, Title: n.Title})
		}
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.db.GetDetails(int64(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if it == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %d", int64(id))), nil
	}
	return mcp.NewToolResultText(it.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := req.GetString("title", "")
	parentID := int64(req.GetInt("parent_id", 0))

	id, err := s.db.CreateNote(parentID, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created note %d", id)), nil
}

func (s *Server) noteTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roots, err := s.db.Tree()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(roots, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID, err := req.RequireInt("list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tasks, err := s.db.Tasks(int64(listID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(tasks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID, err := req.RequireInt("list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.db.AddTask(int64(listID), content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added task %d", id)), nil
}

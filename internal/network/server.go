package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/session"
	"github.com/leengari/cohort-sql/internal/storage"
)

const (
	ActionTables   = "tables"
	ActionSteps    = "steps"
	ActionRun      = "run"
	ActionRunRange = "run_range"
	ActionEdit     = "edit"
	ActionReset    = "reset"
	ActionResult   = "result"
	ActionExit     = "exit"
)

type Request struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	SQL    string `json:"sql,omitempty"`
}

// StepInfo describes one step for the steps action
type StepInfo struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Subtitle string `json:"subtitle,omitempty"`
	SQL      string `json:"sql"`
	Edited   bool   `json:"edited"`
}

// StepResult is the output and log of one step
type StepResult struct {
	Index   int                      `json:"index"`
	Name    string                   `json:"name"`
	Logs    []string                 `json:"logs"`
	Columns []string                 `json:"columns,omitempty"`
	Rows    []map[string]interface{} `json:"rows,omitempty"`
}

type Response struct {
	Session string              `json:"session"`
	RunID   string              `json:"run_id,omitempty"`
	Error   string              `json:"error,omitempty"`
	Message string              `json:"message,omitempty"`
	Tables  []storage.TableInfo `json:"tables,omitempty"`
	Steps   []StepInfo          `json:"steps,omitempty"`
	Results []StepResult        `json:"results,omitempty"`
}

// Start starts the TCP pipeline server
func Start(port int, registry *session.Registry, profile *pipeline.Profile) {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("Failed to bind to port", "port", port, "error", err)
		return
	}
	defer listener.Close()

	slog.Info("Running on port", "port", port, "pipeline", profile.Name)
	Serve(listener, registry, profile)
}

// Serve accepts connections until the listener is closed.
// Every connection gets its own session.
func Serve(listener net.Listener, registry *session.Registry, profile *pipeline.Profile) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			slog.Info("listener closed", "error", err)
			return
		}
		go handleConnection(conn, registry, profile)
	}
}

func handleConnection(conn net.Conn, registry *session.Registry, profile *pipeline.Profile) {
	defer conn.Close()

	// Use Decoder instead of Scanner for network streams
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	sess, err := registry.Open(profile)
	if err != nil {
		_ = encoder.Encode(&Response{Error: err.Error()})
		return
	}
	defer registry.Close(sess.ID)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return // Connection closed gracefully
			}
			slog.Error("decode error", "error", err)
			_ = encoder.Encode(&Response{
				Session: sess.ID,
				Error:   fmt.Sprintf("Invalid request format: %v", err),
			})
			return
		}

		if req.Action == ActionExit {
			return
		}

		resp := Handle(context.Background(), sess, req)
		if err := encoder.Encode(resp); err != nil {
			slog.Error("encode error", "error", err)
			return
		}
	}
}

// Handle executes one request against a session
func Handle(ctx context.Context, sess *session.Session, req Request) *Response {
	resp := &Response{Session: sess.ID}

	switch req.Action {
	case ActionTables:
		resp.Tables = sess.Catalog.Tables

	case ActionSteps:
		_ = sess.View(func(st *pipeline.State) error {
			for _, s := range st.Steps {
				resp.Steps = append(resp.Steps, StepInfo{
					Index:    s.Index,
					Name:     s.Name,
					Subtitle: s.Subtitle,
					SQL:      s.Text,
					Edited:   s.Text != s.DefaultText,
				})
			}
			return nil
		})

	case ActionRun:
		r, err := sess.RunStep(ctx, req.Index)
		if r != nil {
			resp.RunID = r.ID
		}
		setError(resp, err)
		resp.Results = collect(sess, req.Index, req.Index+1)

	case ActionRunRange:
		r, err := sess.RunRange(ctx, req.From, req.To)
		if r != nil {
			resp.RunID = r.ID
		}
		setError(resp, err)
		resp.Results = collect(sess, req.From, req.To)

	case ActionEdit:
		if err := sess.Edit(req.Index, req.SQL); err != nil {
			setError(resp, err)
			break
		}
		resp.Message = fmt.Sprintf("step %d updated", req.Index)

	case ActionReset:
		if err := sess.Reset(req.Index); err != nil {
			setError(resp, err)
			break
		}
		resp.Message = fmt.Sprintf("step %d reset to default", req.Index)

	case ActionResult:
		resp.Results = collect(sess, req.Index, req.Index+1)
		if len(resp.Results) == 0 {
			resp.Error = fmt.Sprintf("step index %d out of range", req.Index)
		}

	default:
		resp.Error = fmt.Sprintf("unknown action %q", req.Action)
	}
	return resp
}

func setError(resp *Response, err error) {
	if err != nil {
		resp.Error = err.Error()
	}
}

// collect snapshots the steps in [from, to) that exist
func collect(sess *session.Session, from, to int) []StepResult {
	var out []StepResult
	_ = sess.View(func(st *pipeline.State) error {
		from, to = max(from, 0), min(to, st.Len())
		for i := from; i < to; i++ {
			s, err := st.Step(i)
			if err != nil {
				continue
			}
			res := StepResult{Index: i, Name: s.Name, Logs: s.Messages()}
			if s.Output != nil {
				res.Columns, res.Rows = tableRows(s.Output)
			}
			out = append(out, res)
		}
		return nil
	})
	return out
}

// tableRows numbers result rows from 1
func tableRows(t *schema.Table) ([]string, []map[string]interface{}) {
	rows := make([]map[string]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		out := make(map[string]interface{}, len(t.Columns)+1)
		out["row_number"] = i + 1
		for _, col := range t.Columns {
			out[col.Name] = row[col.Name]
		}
		rows[i] = out
	}
	return t.ColumnNames(), rows
}

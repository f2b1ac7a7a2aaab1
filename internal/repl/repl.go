package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/session"
	"github.com/leengari/cohort-sql/internal/storage/writer"
)

const help = `Commands:
  steps                 list the steps
  tables                list the loaded source tables
  show <i>              print the SQL of step i
  run <i> | run <a>:<b> run step i, or steps a..b-1
  edit <i>              replace the SQL of step i (end input with a line holding a single '.')
  reset <i>             restore the default SQL of step i
  result <i>            print the log and output of step i
  save <i> <path>       export the output of step i as JSON
  exit | \q             quit`

// Start reads commands from in until EOF or exit
func Start(sess *session.Session, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	fmt.Fprintf(out, "Cohort pipeline shell (%s)\n", pipelineName(sess))
	fmt.Fprintln(out, "Type 'help' for commands, 'exit' or '\\q' to quit.")

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "\\q" {
			return
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if err := dispatch(sess, scanner, out, cmd, args); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func pipelineName(sess *session.Session) string {
	var name string
	_ = sess.View(func(st *pipeline.State) error {
		name = st.Profile.Name
		return nil
	})
	return name
}

func dispatch(sess *session.Session, scanner *bufio.Scanner, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(out, help)
		return nil

	case "tables":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "table\talias\trows")
		for _, ti := range sess.Catalog.Tables {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", ti.Name, ti.Alias, ti.Rows)
		}
		return tw.Flush()

	case "steps":
		return sess.View(func(st *pipeline.State) error {
			for _, s := range st.Steps {
				marker := ""
				if s.Text != s.DefaultText {
					marker = " (edited)"
				}
				fmt.Fprintf(out, "%2d  %s%s\n", s.Index, s.Name, marker)
				if s.Subtitle != "" {
					fmt.Fprintf(out, "    %s\n", firstLine(s.Subtitle))
				}
			}
			return nil
		})

	case "show":
		i, err := indexArg(args, 0)
		if err != nil {
			return err
		}
		return sess.View(func(st *pipeline.State) error {
			s, err := st.Step(i)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s.Text)
			return nil
		})

	case "run":
		if len(args) != 1 {
			return fmt.Errorf("usage: run <i> | run <a>:<b>")
		}
		from, to, err := parseRange(args[0])
		if err != nil {
			return err
		}
		_, runErr := sess.RunRange(context.Background(), from, to)
		for i := from; i < to; i++ {
			printStep(sess, out, i)
		}
		return runErr

	case "edit":
		i, err := indexArg(args, 0)
		if err != nil {
			return err
		}
		var lines []string
		for scanner.Scan() {
			l := scanner.Text()
			if strings.TrimSpace(l) == "." {
				break
			}
			lines = append(lines, l)
		}
		if err := sess.Edit(i, strings.Join(lines, "\n")); err != nil {
			return err
		}
		fmt.Fprintf(out, "step %d updated\n", i)
		return nil

	case "reset":
		i, err := indexArg(args, 0)
		if err != nil {
			return err
		}
		if err := sess.Reset(i); err != nil {
			return err
		}
		fmt.Fprintf(out, "step %d reset to default\n", i)
		return nil

	case "result":
		i, err := indexArg(args, 0)
		if err != nil {
			return err
		}
		return printStep(sess, out, i)

	case "save":
		i, err := indexArg(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return fmt.Errorf("usage: save <i> <path>")
		}
		return sess.View(func(st *pipeline.State) error {
			s, err := st.Step(i)
			if err != nil {
				return err
			}
			if s.Output == nil {
				return fmt.Errorf("step %d has no output", i)
			}
			if err := writer.SaveTable(s.Output, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out, "saved %d rows to %s\n", s.Output.Len(), args[1])
			return nil
		})
	}
	return fmt.Errorf("unknown command %q (type 'help')", cmd)
}

func printStep(sess *session.Session, out io.Writer, i int) error {
	return sess.View(func(st *pipeline.State) error {
		s, err := st.Step(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "== %d. %s\n", s.Index, s.Name)
		for _, m := range s.Messages() {
			fmt.Fprintln(out, m)
		}
		if s.Output != nil {
			PrintTable(out, s.Output)
		}
		return nil
	})
}

func indexArg(args []string, pos int) (int, error) {
	if len(args) <= pos {
		return 0, fmt.Errorf("missing step index")
	}
	i, err := strconv.Atoi(args[pos])
	if err != nil {
		return 0, fmt.Errorf("invalid step index %q", args[pos])
	}
	return i, nil
}

// parseRange reads "i" as [i, i+1) and "a:b" as [a, b)
func parseRange(arg string) (int, int, error) {
	if a, b, ok := strings.Cut(arg, ":"); ok {
		from, err := strconv.Atoi(a)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range %q", arg)
		}
		to, err := strconv.Atoi(b)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range %q", arg)
		}
		return from, to, nil
	}
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid step index %q", arg)
	}
	return i, i + 1, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// PrintTable writes t as an aligned grid with 1-based row numbers
func PrintTable(w io.Writer, t *schema.Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	// Header
	fmt.Fprint(tw, "#")
	for _, col := range t.Columns {
		fmt.Fprintf(tw, "\t%s", col.Name)
	}
	fmt.Fprintln(tw)

	// Separator
	fmt.Fprint(tw, "---")
	for range t.Columns {
		fmt.Fprint(tw, "\t---")
	}
	fmt.Fprintln(tw)

	// Rows
	for i, row := range t.Rows {
		fmt.Fprintf(tw, "%d", i+1)
		for _, col := range t.Columns {
			fmt.Fprintf(tw, "\t%s", formatCell(row[col.Name]))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	fmt.Fprintf(w, "(%d rows)\n", t.Len())
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// probectl is an interactive client for the probecached HTTP API.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"
)

func main() {
	server := pflag.String("server", "http://127.0.0.1:7080", "base URL of the probecached HTTP API")
	pflag.Parse()

	client := newClient(*server)
	repl := &REPL{client: client}
	if err := repl.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "probectl: %v\n", err)
		os.Exit(1)
	}
}

// REPL is the interactive command loop.
type REPL struct {
	client *client
	liner  *liner.State
}

var commands = []string{
	"instances", "stats", "member", "syncmember", "add", "addlist", "del", "reinit", "help", "quit",
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".probectl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c)
			}
		}
		return out
	})

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("probectl - probecached client (%s)\n", r.client.baseURL)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("probectl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil

		case "help", "?":
			r.printHelp()

		case "instances", "ls":
			r.cmdInstances()

		case "stats":
			r.cmdStats(args)

		case "member":
			r.cmdMember(args, false)

		case "syncmember", "smember":
			r.cmdMember(args, true)

		case "add":
			r.cmdAdd(args)

		case "addlist":
			r.cmdAddList(args)

		case "del", "delete":
			r.cmdDelete(args)

		case "reinit":
			r.cmdReinit(args)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) printHelp() {
	fmt.Print(`Commands:
  instances                      list instance names
  stats <instance>               show instance stats
  member <instance> <key>        fast-path membership check
  syncmember <instance> <key>    coordinated membership check
  add <instance> <key>           add one key
  addlist <instance> <key...>    add several keys in one batch
  del <instance> <key>           delete one key
  reinit <instance> [key...]     rebuild the instance from the given keys
  help                           show this help
  quit                           exit
`)
}

func (r *REPL) cmdInstances() {
	names, err := r.client.instances()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func (r *REPL) cmdStats(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: stats <instance>")
		return
	}
	body, err := r.client.stats(args[0])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(body)
}

func (r *REPL) cmdMember(args []string, sync bool) {
	if len(args) != 2 {
		fmt.Println("usage: member <instance> <key>")
		return
	}
	member, err := r.client.member(args[0], args[1], sync)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(member)
}

func (r *REPL) cmdAdd(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: add <instance> <key>")
		return
	}
	if err := r.client.add(args[0], args[1]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func (r *REPL) cmdAddList(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: addlist <instance> <key...>")
		return
	}
	if err := r.client.addList(args[0], args[1:]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: del <instance> <key>")
		return
	}
	if err := r.client.del(args[0], args[1]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func (r *REPL) cmdReinit(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: reinit <instance> [key...]")
		return
	}
	if err := r.client.reinit(args[0], args[1:]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

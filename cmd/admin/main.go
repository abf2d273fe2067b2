// Operator CLI for the player document store.
//
//	admin list  -db ./data/players.db
//	admin show  -db ./data/players.db <player_id>
//	admin grant -db ./data/players.db <player_id> <amount>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"hearth/internal/player"
	"hearth/internal/sleeplog"
	"hearth/internal/store"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "show":
			showCmd(os.Args[2:])
			return
		case "grant":
			grantCmd(os.Args[2:])
			return
		case "list":
			listCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func openStore(fs *flag.FlagSet, args []string) (*store.SQLiteStore, []string) {
	dbPath := fs.String("db", "./data/players.db", "sqlite document store path")
	_ = fs.Parse(args)
	s, err := store.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return s, fs.Args()
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	s, _ := openStore(fs, args)
	defer s.Close()

	ids, err := s.Players(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	s, rest := openStore(fs, args)
	defer s.Close()

	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "usage: admin show [-db path] <player_id>")
		os.Exit(2)
	}
	rec, err := s.Load(context.Background(), rest[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	printRecord(rec)
}

func grantCmd(args []string) {
	fs := flag.NewFlagSet("grant", flag.ExitOnError)
	s, rest := openStore(fs, args)
	defer s.Close()

	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "usage: admin grant [-db path] <player_id> <amount>")
		os.Exit(2)
	}
	amount, err := strconv.Atoi(rest[1])
	if err != nil || amount < 0 {
		fmt.Fprintln(os.Stderr, "bad amount:", rest[1])
		os.Exit(2)
	}
	rec, err := s.EarnBalance(context.Background(), rest[0], amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, "grant:", err)
		os.Exit(1)
	}
	fmt.Printf("%s balance: %d\n", rest[0], rec.Balance)
}

func printRecord(rec *player.Record) {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
	if entries := sleeplog.Sorted(rec); len(entries) > 0 {
		fmt.Println("sleep log (most recent first):")
		for _, e := range entries {
			fmt.Printf("  %s  %.1fh\n", e.Date, e.Hours)
		}
	}
}

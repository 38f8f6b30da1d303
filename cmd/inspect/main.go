package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chat-relay/internal"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Small operational tool: dump the relay's user and message records
// straight from BadgerDB, without going through the HTTP API.
// With -serve, it exposes the same records as a browsable web page instead.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "user:", "Prefix to scan (user: or msg:)")
	serve := flag.Bool("serve", false, "Serve a web inspector instead of dumping to stdout")
	port := flag.Int("port", 8090, "Web inspector port (with -serve)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *serve {
		color.Bold.Printf("Inspector on http://localhost:%d/inspect\n", *port)
		if err := internal.StartDebugServer(db, *port, webRow, stats(db)); err != nil {
			log.Fatal("Inspector failed: ", err)
		}
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	switch {
	case strings.HasPrefix(*prefix, "user:"):
		color.Bold.Println("Users")
		table.SetHeader([]string{"Key", "Username", "Online", "Created At"})
	case strings.HasPrefix(*prefix, "msg:"):
		color.Bold.Println("Messages")
		table.SetHeader([]string{"Key", "Sender", "Receiver", "Content", "Timestamp"})
	default:
		log.Fatalf("Unsupported prefix %q", *prefix)
	}
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				var record map[string]any
				if err := json.Unmarshal(v, &record); err != nil {
					// Log and keep scanning instead of aborting the whole dump
					fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
					return nil
				}
				table.Append(row(key, *prefix, record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}

func row(key, prefix string, record map[string]any) []string {
	if strings.HasPrefix(prefix, "user:") {
		online := color.Red.Sprint("offline")
		if b, _ := record["online"].(bool); b {
			online = color.Green.Sprint("online")
		}
		return []string{key, str(record["username"]), online, str(record["created_at"])}
	}
	return []string{key, str(record["sender"]), str(record["receiver"]),
		str(record["message"]), str(record["timestamp"])}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// webRow maps a stored record to one inspector table row.
func webRow(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	var record map[string]any
	if err := json.Unmarshal(val, &record); err != nil {
		return row
	}

	switch row.Namespace {
	case "user":
		row.Type = "USER"
		state := "offline"
		if b, _ := record["online"].(bool); b {
			state = "online"
		}
		row.Detail = fmt.Sprintf("%s (%s)", str(record["username"]), state)
	case "msg":
		row.Type = "MESSAGE"
		row.Detail = fmt.Sprintf("%s -> %s: %s",
			str(record["sender"]), str(record["receiver"]), str(record["message"]))
	}
	return row
}

// stats counts records per namespace for the inspector header.
func stats(db *badger.DB) internal.StatsProvider {
	return func() map[string]any {
		counts := map[string]any{"users": 0, "messages": 0}
		_ = db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			users, messages := 0, 0
			for it.Rewind(); it.Valid(); it.Next() {
				switch {
				case strings.HasPrefix(string(it.Item().Key()), "user:"):
					users++
				case strings.HasPrefix(string(it.Item().Key()), "msg:"):
					messages++
				}
			}
			counts["users"] = users
			counts["messages"] = messages
			return nil
		})
		return counts
	}
}

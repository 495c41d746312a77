// Read-only inspector for the record store: dumps one collection as a
// table without disturbing a running client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	entity := flag.String("entity", "messages", "Collection to dump (messages|presence)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db flag")
	}

	// BypassLockGuard allows opening while a chat client holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := dump(db, *entity); err != nil {
		log.Fatalf("Failed to dump %s: %v", *entity, err)
	}
}

func dump(db *badger.DB, entity string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	var headers []string
	prefix := []byte(entity + ":")

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			fields := map[string]any{}
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &fields)
			})
			if err != nil {
				fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
				continue
			}

			if headers == nil {
				for name := range fields {
					headers = append(headers, name)
				}
				sort.Strings(headers)
				table.SetHeader(append([]string{"key"}, headers...))
			}

			row := []string{string(item.Key())}
			for _, name := range headers {
				row = append(row, fmt.Sprint(fields[name]))
			}
			table.Append(row)
		}
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

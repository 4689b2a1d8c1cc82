// Command vdbctl is a command-line front end over pkg/vectordb: create
// collections, add vectors, run queries, and inspect collection stats
// against a database directory on disk.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/monishSR/vectordb/pkg/vectordb"
)

var dbDir string

var rootCmd = &cobra.Command{
	Use:   "vdbctl",
	Short: "CLI for the embeddable cosine vector database",
}

var createCmd = &cobra.Command{
	Use:   "create <collection> <dimension>",
	Short: "Create a new collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dim, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid dimension %q: %w", args[1], err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}

		ivf, _ := cmd.Flags().GetBool("ivf")
		nClusters, _ := cmd.Flags().GetInt("clusters")
		if ivf {
			err = db.CreateCollectionWithIVF(args[0], dim, nClusters)
		} else {
			err = db.CreateCollection(args[0], dim)
		}
		if err != nil {
			return fmt.Errorf("create collection: %w", err)
		}

		fmt.Printf("collection %q created (dimension=%d, ivf=%v)\n", args[0], dim, ivf)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <collection>",
	Short: "Add a vector to a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vectorStr, _ := cmd.Flags().GetString("vector")
		if vectorStr == "" {
			return fmt.Errorf("--vector is required")
		}
		embedding, err := parseVector(vectorStr)
		if err != nil {
			return err
		}

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = uuid.NewString()
		}

		metadata, err := parseMetadata(cmd)
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		err = db.WithCollectionMut(args[0], func(c *vectordb.Collection) error {
			return c.Add([]string{id}, [][]float32{embedding}, []map[string]vectordb.MetadataValue{metadata})
		})
		if err != nil {
			return fmt.Errorf("add vector: %w", err)
		}

		fmt.Printf("added %q to %q\n", id, args[0])
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <collection>",
	Short: "Query a collection for its nearest neighbors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vectorStr, _ := cmd.Flags().GetString("vector")
		if vectorStr == "" {
			return fmt.Errorf("--vector is required")
		}
		q, err := parseVector(vectorStr)
		if err != nil {
			return err
		}
		k, _ := cmd.Flags().GetInt("k")

		db, err := openDB()
		if err != nil {
			return err
		}

		var results []vectordb.SearchResult
		err = db.WithCollectionMut(args[0], func(c *vectordb.Collection) error {
			var queryErr error
			results, queryErr = c.Query(q, k, nil)
			return queryErr
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		for _, r := range results {
			fmt.Printf("%s\tdistance=%.6f\n", r.ID, r.Distance)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <collection>",
	Short: "Print collection statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		var stats vectordb.Stats
		err = db.WithCollection(args[0], func(c *vectordb.Collection) {
			stats = c.Stats()
		})
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}

		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every persisted collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		names, err := db.ListCollections()
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection>",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := db.DeleteCollection(args[0]); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		fmt.Printf("collection %q deleted\n", args[0])
		return nil
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <collection>",
	Short: "Force an IVF index rebuild",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		err = db.WithCollectionMut(args[0], func(c *vectordb.Collection) error {
			c.RebuildIndex()
			return nil
		})
		if err != nil {
			return fmt.Errorf("rebuild: %w", err)
		}
		fmt.Printf("collection %q rebuilt\n", args[0])
		return nil
	},
}

func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func parseMetadata(cmd *cobra.Command) (map[string]vectordb.MetadataValue, error) {
	raw, _ := cmd.Flags().GetString("metadata")
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var generic map[string]any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("invalid --metadata JSON: %w", err)
	}
	out := make(map[string]vectordb.MetadataValue, len(generic))
	for k, v := range generic {
		switch val := v.(type) {
		case string:
			out[k] = vectordb.StringValue(val)
		case bool:
			out[k] = vectordb.BoolValue(val)
		case json.Number:
			var mv vectordb.MetadataValue
			if err := json.Unmarshal([]byte(val), &mv); err != nil {
				return nil, fmt.Errorf("invalid metadata value for key %q: %w", k, err)
			}
			out[k] = mv
		default:
			return nil, fmt.Errorf("unsupported metadata value for key %q", k)
		}
	}
	return out, nil
}

func openDB() (*vectordb.DB, error) {
	if dbDir == "" {
		return nil, fmt.Errorf("database directory not specified")
	}
	return vectordb.Open(dbDir, vectordb.DefaultConfig())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbDir, "dir", "d", "./vdb-data", "Database directory")

	createCmd.Flags().Bool("ivf", false, "Create an IVF-backed collection")
	createCmd.Flags().Int("clusters", 100, "Number of IVF clusters (only with --ivf)")

	addCmd.Flags().String("vector", "", "Embedding values (comma-separated)")
	addCmd.Flags().String("id", "", "Vector id (random uuid if omitted)")
	addCmd.Flags().String("metadata", "", "Metadata as a JSON object")

	queryCmd.Flags().String("vector", "", "Query vector (comma-separated)")
	queryCmd.Flags().Int("k", 10, "Number of neighbors to return")

	rootCmd.AddCommand(createCmd, addCmd, queryCmd, statsCmd, listCmd, deleteCmd, rebuildCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

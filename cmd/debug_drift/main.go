package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"policy-agent/core/config"
	"policy-agent/core/database"
	"policy-agent/feature/inventory"
	"policy-agent/feature/source"
	"policy-agent/feature/target"
)

// Prints the current drift between the inventory database and the policy
// backend without applying anything. Handy when a shallow pass keeps
// resubmitting the same objects.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	repo := source.NewRepository(db)

	client, err := target.NewRestClient(cfg.Target)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	kinds := []struct {
		name  string
		query source.RevisionQuery
		kind  target.Kind
	}{
		{"security_groups", repo.SecurityGroupRevisions, target.KindAddressSet},
		{"qos_profiles", repo.QosPolicyRevisions, target.KindQosProfile},
		{"ports", repo.PortRevisions(cfg.Agent.Host), target.KindPort},
	}

	type drift struct {
		Kind     string   `json:"kind"`
		Outdated []string `json:"outdated"`
		Orphaned []string `json:"orphaned"`
	}

	var report []drift
	for _, k := range kinds {
		sourceRevs, err := inventory.FetchRevisions(ctx, k.query, cfg.Agent.PageLimit)
		if err != nil {
			log.Fatalf("source revisions for %s: %v", k.name, err)
		}
		targetRevs, err := client.ListRevisions(ctx, k.kind)
		if err != nil {
			log.Fatalf("target revisions for %s: %v", k.name, err)
		}

		outdated, orphaned := inventory.Diff(sourceRevs, targetRevs)
		report = append(report, drift{
			Kind:     k.name,
			Outdated: outdated.ToSlice(),
			Orphaned: orphaned.ToSlice(),
		})
		fmt.Printf("%s: %d source, %d target, %d outdated, %d orphaned\n",
			k.name, len(sourceRevs), len(targetRevs), outdated.Cardinality(), orphaned.Cardinality())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/c360/ontosim/gateway"
)

// runQuery answers the one query named on the command line and prints the
// JSON answer.
func runQuery(ctx context.Context, svc gateway.Service, cli *CLIConfig, w io.Writer) error {
	var (
		out any
		err error
	)

	switch {
	case cli.ConceptForLabel != "":
		out, err = gateway.Concept(svc, gateway.ConceptQuery{Label: cli.ConceptForLabel})
	case cli.LabelForConcept != "":
		out, err = gateway.Label(svc, gateway.LabelQuery{Concept: cli.LabelForConcept})
	case cli.Pairwise != "":
		a, b, splitErr := splitPair(cli.Pairwise)
		if splitErr != nil {
			return splitErr
		}
		out, err = gateway.Pairwise(svc, gateway.PairwiseRequest{A: a, B: b, Strict: cli.Strict})
	case cli.Groupwise != "":
		setA, setB, splitErr := splitSets(cli.Groupwise)
		if splitErr != nil {
			return splitErr
		}
		out, err = gateway.Groupwise(svc, gateway.GroupwiseRequest{SetA: setA, SetB: setB, Strict: cli.Strict})
	case cli.Neighborhood != "":
		out, err = gateway.Neighborhood(ctx, svc, gateway.NeighborhoodRequest{
			Seed:      cli.Neighborhood,
			Threshold: cli.Threshold,
		})
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

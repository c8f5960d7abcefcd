// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"

	"github.com/luthersystems/rktgrade/problem"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/viper"
)

// loadProblems loads the configured problem catalog with completion status
// from st.
func loadProblems(ctx context.Context, st store.Store) (*problem.Catalog, error) {
	dir := viper.GetString(keyProblemsDir)
	c, err := problem.LoadCatalog(ctx, appFs, dir, st)
	if err != nil {
		return nil, fmt.Errorf("problems %s: %w", dir, err)
	}
	return c, nil
}

// findProblem returns the problem with the given id or file name.
func findProblem(ctx context.Context, st store.Store, key string) (*problem.Entry, error) {
	c, err := loadProblems(ctx, st)
	if err != nil {
		return nil, err
	}
	e, ok := c.Find(key)
	if !ok {
		return nil, fmt.Errorf("unknown problem %q", key)
	}
	return e, nil
}

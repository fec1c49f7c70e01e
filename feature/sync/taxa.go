package sync

import (
	"context"
	"errors"
	"slices"
	"strings"

	"sighting-engine/core/store"
	"sighting-engine/core/utils"
	"sighting-engine/feature/sync/inaturalist"

	"go.uber.org/zap"
)

// importSpecies reads species pages under the root taxon and stores the ones
// not yet known. It returns the number of species written.
func (e *Engine) importSpecies(ctx context.Context) (int, error) {
	first, err := e.deps.Source.ListTaxa(ctx, inaturalist.TaxaQuery{
		RootID:  e.cfg.RootTaxonID,
		Page:    1,
		PerPage: 1,
	})
	if err != nil {
		return 0, wrapExpected(err)
	}
	expected := first.TotalResults
	e.logger.Info("Importing species", zap.Int("expected", expected), zap.Int64("root_taxon", e.cfg.RootTaxonID))

	perPage := e.cfg.perPage()
	inserted, seen := 0, 0
	for page := 1; page <= e.cfg.maxPages(); page++ {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		res, err := e.deps.Source.ListTaxa(ctx, inaturalist.TaxaQuery{
			RootID:  e.cfg.RootTaxonID,
			Page:    page,
			PerPage: perPage,
		})
		if err != nil {
			if ctx.Err() != nil {
				return inserted, ctx.Err()
			}
			e.logger.Error("Failed to fetch species page", zap.Int("page", page), zap.Error(err))
			break
		}

		n, err := e.importTaxa(ctx, res.Results)
		inserted += n
		if err != nil {
			if ctx.Err() != nil {
				return inserted, ctx.Err()
			}
			e.logger.Error("Stopping species import", zap.Int("page", page), zap.Error(err))
			break
		}
		e.logger.Debug("Species page imported", zap.Int("page", page), zap.Int("inserted", n))

		seen += len(res.Results)
		if len(res.Results) < perPage || (expected > 0 && seen >= expected) {
			break
		}
		if err := e.sleep(ctx, e.cfg.PageDelay); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// importTaxa stores the new species of one page.
func (e *Engine) importTaxa(ctx context.Context, taxa []inaturalist.Taxon) (int, error) {
	names := make([]string, 0, len(taxa))
	for _, t := range taxa {
		if name := strings.TrimSpace(t.Name); name != "" {
			names = append(names, name)
		}
	}
	known, err := e.deps.Store.ExistingSpeciesNames(ctx, names)
	if err != nil {
		return 0, err
	}
	if known == nil {
		known = make(map[string]struct{})
	}

	var batch []store.Species
	for _, t := range taxa {
		name := strings.TrimSpace(t.Name)
		switch {
		case name == "":
			e.skip("species", "no_name", 1)
			continue
		case !slices.Contains(t.AncestorIDs, e.cfg.RootTaxonID):
			e.skip("species", "out_of_scope", 1)
			continue
		}
		if _, ok := known[name]; ok {
			e.skip("species", "exists", 1)
			continue
		}

		family, genus := e.ancestry(ctx, &t)
		if family == "" || genus == "" {
			e.logger.Warn("Skipping species with incomplete ancestry",
				zap.String("species", name),
				zap.String("family", family),
				zap.String("genus", genus),
			)
			e.skip("species", "incomplete", 1)
			continue
		}

		known[name] = struct{}{}
		sp := store.Species{
			Family:     family,
			Genus:      genus,
			Name:       name,
			CommonName: utils.FirstNonEmpty(t.PreferredCommonName, name),
		}
		if t.DefaultPhoto != nil {
			sp.ImageURL = t.DefaultPhoto.MediumURL
		}
		batch = append(batch, sp)
	}

	if len(batch) == 0 {
		return 0, nil
	}
	n, err := e.deps.Store.InsertSpeciesBatch(ctx, batch)
	if err == nil {
		return int(n), nil
	}

	e.logger.Warn("Batch insert failed, inserting one by one", zap.Int("size", len(batch)), zap.Error(err))
	inserted := 0
	for i := range batch {
		sp := batch[i]
		sp.ID = 0
		if err := e.deps.Store.CreateSpecies(ctx, &sp); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				e.skip("species", "exists", 1)
				continue
			}
			e.logger.Error("Failed to insert species", zap.String("species", sp.Name), zap.Error(err))
			e.skip("species", "failed", 1)
			continue
		}
		inserted++
	}
	return inserted, nil
}

// ancestry walks the ancestors of a taxon from the most specific one up and
// returns the first family and genus found. Failed lookups are skipped.
func (e *Engine) ancestry(ctx context.Context, t *inaturalist.Taxon) (family, genus string) {
	for i := len(t.AncestorIDs) - 1; i >= 0; i-- {
		id := t.AncestorIDs[i]
		if id == t.ID {
			continue
		}
		ancestor, err := e.deps.Source.GetTaxon(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return "", ""
			}
			e.logger.Debug("Ancestor lookup failed", zap.Int64("taxon", id), zap.Error(err))
			continue
		}
		switch ancestor.Rank {
		case "genus":
			if genus == "" {
				genus = ancestor.Name
			}
		case "family":
			if family == "" {
				family = ancestor.Name
			}
		}
		if family != "" && genus != "" {
			return family, genus
		}
	}
	return family, genus
}

// Package starcat ingests star-system datasets for the Solar System
// Explorer visualization:
//
// - Load turns raw JSON text into an immutable model.Dataset, repairing or
// dropping malformed entities and reporting each decision as an Issue
// - Derived quantities (luminosity, habitable zones, irradiance) are computed
// once per load
// - Catalog publishes loaded datasets atomically; a failed load never
// replaces the published one
//
// Design policy:
// - Keep only public APIs in the root package; put the load stages under internal/.
// - Warnings come back in Result.Warnings; fatal problems come back as an
// Issues error holding exactly one issue (see IsFatal).
//
// Typical usage:
//
//	res, err := starcat.LoadBytes(ctx, data)
//	if starcat.IsFatal(err) { ... }
//
//	cat := starcat.NewCatalog(starcat.WithLogger(log))
//	snap, err := cat.Load(ctx, starcat.JSONFile("catalog.json"))
package starcat

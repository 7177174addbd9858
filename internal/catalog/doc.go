// Package catalog is the immutable registry of component templates.
//
// A catalog is assembled from HCL files holding three kinds of blocks:
//
//   - `category "<name>" {}` declares a component category and its rules:
//     which output section it lands in, which name namespace it shares and
//     whether it is a singleton.
//   - `connection "<from>" "<to>" {}` declares that instances of the two
//     categories may be connected, how the edge orders them and which link
//     variable (if any) the dependent template receives.
//   - `template "<id>" {}` declares a reusable component: its category, its
//     property schema, its baseline cost and its emission template.
//
// Behaviour that differs per category lives entirely in this data. Adding a
// category or a template is a data change; the validator, resolver and
// emitter only ever consult the tables built here.
//
// The embedded default catalog is available through Default. User template
// packs are merged on top of it with LoadDir.
package catalog

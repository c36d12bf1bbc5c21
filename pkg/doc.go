// Package pkg provides the libraries behind mvnfetch, a resolver for Maven
// artifact references.
//
// # Overview
//
// mvnfetch turns a reference such as org.example/lib/1.0/jar/sources into a
// file in the local repository (~/.m2/repository), trying an ordered list of
// repositories until one serves it. The pkg directory is organized into
// three main areas:
//
//  1. Addressing: [coordinate] and [repository] parse references and
//     repository specifiers
//  2. Configuration: [config] layers properties over settings.xml, [mirror]
//     redirects repositories
//  3. Resolution: [resolver] drives [metadata], [transport], [cache] and
//     [localrepo]
//
// # Architecture
//
// The typical data flow of one resolution:
//
//	reference string
//	       ↓
//	  [coordinate] package (parse group/artifact/version/type/classifier)
//	       ↓
//	  [config] package (candidate repositories, mirrors, proxies)
//	       ↓
//	  [metadata] package (bind LATEST, RELEASE and -SNAPSHOT per repository)
//	       ↓
//	  [transport] package (http(s) and file URLs)
//	       ↓
//	  [localrepo] package (atomic commit)
//
// # Quick Start
//
//	cfg, _ := config.Resolve(config.Properties{}, config.Options{})
//	r := resolver.New(cfg, resolver.Options{})
//
//	path, err := r.Locate(ctx, "org.apache.commons/commons-lang3/RELEASE")
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // no candidate had it
//	}
//
// # Main Packages
//
// [coordinate] - Reference parsing, version kinds (exact, LATEST, RELEASE,
// snapshot) and repository paths for both layouts.
//
// [repository] - Repository specifiers: URL plus @id=, @snapshots,
// @noreleases and @update= flags.
//
// [config] - Properties from flags, MVNFETCH_* variables and a TOML or YAML
// file, merged with the settings document into an immutable Configuration.
//
// [mirror] - mirrorOf pattern matching.
//
// [metadata] - maven-metadata.xml decoding and placeholder binding, with
// per-repository update policies deciding cache freshness.
//
// [resolver] - Candidate iteration, request collapsing and tracing.
//
// ## Infrastructure
//
// [cache] - Metadata cache backends: file, memory (LRU), Redis and a tiered
// combination.
//
// [transport] - Scheme-dispatching resource access with proxy support.
//
// [localrepo] - The local repository store.
//
// [observability] - Hook registry for metrics.
//
// [errors] - Error codes shared by every package.
//
// [coordinate]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/coordinate
// [repository]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/repository
// [config]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/config
// [mirror]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/mirror
// [metadata]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/metadata
// [resolver]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/resolver
// [cache]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/cache
// [transport]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/transport
// [localrepo]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/localrepo
// [observability]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/mvnfetch/pkg/errors
package pkg

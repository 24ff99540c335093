package runner

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/config"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
	"github.com/rushi1222/job-applier-amazon/internal/scraper/amazon"
	"github.com/rushi1222/job-applier-amazon/internal/scraper/google"
	"github.com/rushi1222/job-applier-amazon/internal/scraper/linkedin"
)

// Site describes how to build one site adapter.
type Site struct {
	New func(opts scraper.Options, logger *zap.Logger) scraper.Adapter
	// CanApply marks sites that have an application form driver.
	CanApply bool
}

// Registry maps site ids, as used in the config file, to adapters.
type Registry map[string]Site

func DefaultRegistry() Registry {
	return Registry{
		amazon.Name: {
			New: func(opts scraper.Options, logger *zap.Logger) scraper.Adapter {
				return amazon.NewAmazonScraper(opts, logger)
			},
			CanApply: true,
		},
		google.Name: {
			New: func(opts scraper.Options, logger *zap.Logger) scraper.Adapter {
				return google.NewGoogleScraper(opts, logger)
			},
		},
		linkedin.Name: {
			New: func(opts scraper.Options, logger *zap.Logger) scraper.Adapter {
				return linkedin.NewLinkedInScraper(opts, logger)
			},
		},
	}
}

// Check fails on the first configured site the registry does not know.
func (r Registry) Check(sites config.Sites) error {
	for _, sc := range sites {
		if _, ok := r[sc.Name]; !ok {
			return fmt.Errorf("unknown site %q (known: %s)", sc.Name, strings.Join(r.Names(), ", "))
		}
	}
	return nil
}

// Names returns the registered site ids, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

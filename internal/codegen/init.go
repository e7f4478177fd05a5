package codegen

import (
	"github.com/okra-platform/gisgen/internal/codegen/arcpy"
	"github.com/okra-platform/gisgen/internal/codegen/deck"
	"github.com/okra-platform/gisgen/internal/codegen/export"
	"github.com/okra-platform/gisgen/internal/codegen/folium"
	"github.com/okra-platform/gisgen/internal/codegen/kepler"
	"github.com/okra-platform/gisgen/internal/codegen/pyqgis"
	"github.com/okra-platform/gisgen/internal/codegen/pyt"
	"github.com/okra-platform/gisgen/internal/codegen/qgs"
	"github.com/okra-platform/gisgen/internal/codegen/target"
)

// DefaultRegistry is the global registry instance with every dialect registered
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register(target.PyQGIS, func(opts target.Options) Generator {
		return pyqgis.NewGenerator(opts)
	})

	DefaultRegistry.Register(target.ArcPy, func(opts target.Options) Generator {
		return arcpy.NewGenerator(opts)
	})

	DefaultRegistry.Register(target.Folium, func(opts target.Options) Generator {
		return folium.NewGenerator(opts)
	})

	DefaultRegistry.Register(target.Kepler, func(opts target.Options) Generator {
		return kepler.NewGenerator(opts)
	})

	DefaultRegistry.Register(target.Deck, func(opts target.Options) Generator {
		return deck.NewGenerator(opts)
	})

	DefaultRegistry.Register(target.Export, func(opts target.Options) Generator {
		return export.NewGenerator(opts)
	})

	DefaultRegistry.Register(target.QGS, func(opts target.Options) Generator {
		return qgs.NewGenerator(opts)
	})

	DefaultRegistry.Register(target.PYT, func(opts target.Options) Generator {
		return pyt.NewGenerator(opts)
	})
}

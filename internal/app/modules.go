package app

import (
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
	"github.com/specialistvlad/assetgrid/modules/bundle"
	"github.com/specialistvlad/assetgrid/modules/settings"
	"github.com/specialistvlad/assetgrid/modules/text"
)

// coreModules is the definitive list of all resource types compiled into the
// assetgrid binary.
var coreModules = []typeregistry.Module{
	&bundle.Module{},
	&settings.Module{},
	&text.Module{},
}

package app

import (
	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/modules/eaf"
	"github.com/vk/ocfltools/modules/flextext"
	"github.com/vk/ocfltools/modules/ixt"
	"github.com/vk/ocfltools/modules/paradisec"
	"github.com/vk/ocfltools/modules/trs"
)

// coreModules is the definitive list of all modules that are compiled into
// the ocfl-tools binary.
var coreModules = []registry.Module{
	&paradisec.Module{},
	&eaf.Module{},
	&trs.Module{},
	&flextext.Module{},
	&ixt.Module{},
}

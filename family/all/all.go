// Package all links every plugin of the family into the binary.
package all

import (
	_ "github.com/BaSui01/pluginfamily/family/plugins/echo"
	_ "github.com/BaSui01/pluginfamily/family/plugins/greeting"
	_ "github.com/BaSui01/pluginfamily/family/plugins/myplugin"
)

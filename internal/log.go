package internal

import "github.com/tliron/commonlog"

// Loggers for each part of the object model. The package never installs a
// backend; programs embedding it choose one, e.g. by importing
// github.com/tliron/commonlog/simple.
var (
	tableLog  = commonlog.GetLogger("scriptobj.table")
	objectLog = commonlog.GetLogger("scriptobj.object")
	scopeLog  = commonlog.GetLogger("scriptobj.scope")
)

// Command objsh is a line-oriented shell for exploring the object model.
//
// Each line of input is a command operating on objects named by the session:
//
//	new NAME                  create an object with no prototype
//	proto NAME PROTO          set NAME's prototype ("-" for none)
//	scope NAME PARENT         create a plain scope frame
//	with NAME TARGET PARENT   create a with frame over TARGET
//	call NAME PARENT          create a call frame
//	put OBJ KEY VALUE         assign a property
//	get OBJ KEY               read a property through the prototype chain
//	has OBJ KEY               check for a property in the prototype chain
//	del OBJ KEY               delete an own property
//	attrs OBJ KEY [BITS]      show or set attributes, e.g. ReadOnly|DontEnum
//	const OBJ KEY [VALUE]     declare a const, or initialize it
//	seal OBJ                  seal an object
//	freeze OBJ                prevent extensions
//	keys OBJ [all]            list own keys
//	enum OBJ [MODE]           enumerate keys, values, or entries
//	name SCOPE ID             resolve an identifier
//	assign SCOPE ID VALUE     assign an identifier
//
// Values are strings. Names of objects are also accepted as values, in which
// case the object itself is stored.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/zephyrtronium/scriptobj"

	// import for side effects
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	verbose := flag.Int("v", -1, "log verbosity; overrides the configuration")
	flag.Parse()

	cfg := scriptobj.DefaultConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = scriptobj.LoadConfig(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *verbose >= 0 {
		cfg.Log.Verbosity = *verbose
	}
	var logPath *string
	if cfg.Log.Path != "" {
		logPath = &cfg.Log.Path
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	sh := &shell{vm: scriptobj.NewVM(cfg), objs: make(map[string]*scriptobj.Object)}
	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("obj> ")
		if !stdin.Scan() {
			break
		}
		out, err := sh.exec(strings.Fields(stdin.Text()))
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	if err := stdin.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// shell holds the objects of a session.
type shell struct {
	vm   *scriptobj.VM
	objs map[string]*scriptobj.Object
}

// command is a shell command taking at least min and at most max arguments.
type command struct {
	min, max int
	run      func(sh *shell, args []string) (string, error)
}

var commands = map[string]command{
	"new":    {1, 1, (*shell).cmdNew},
	"proto":  {2, 2, (*shell).cmdProto},
	"scope":  {2, 2, (*shell).cmdScope},
	"with":   {3, 3, (*shell).cmdWith},
	"call":   {2, 2, (*shell).cmdCall},
	"put":    {3, 3, (*shell).cmdPut},
	"get":    {2, 2, (*shell).cmdGet},
	"has":    {2, 2, (*shell).cmdHas},
	"del":    {2, 2, (*shell).cmdDel},
	"attrs":  {2, 3, (*shell).cmdAttrs},
	"const":  {2, 3, (*shell).cmdConst},
	"seal":   {1, 1, (*shell).cmdSeal},
	"freeze": {1, 1, (*shell).cmdFreeze},
	"keys":   {1, 2, (*shell).cmdKeys},
	"enum":   {1, 2, (*shell).cmdEnum},
	"name":   {2, 2, (*shell).cmdName},
	"assign": {3, 3, (*shell).cmdAssign},
}

// exec runs one command line.
func (sh *shell) exec(f []string) (string, error) {
	if len(f) == 0 {
		return "", nil
	}
	c, ok := commands[f[0]]
	if !ok {
		return "", fmt.Errorf("unknown command %q", f[0])
	}
	args := f[1:]
	if len(args) < c.min || len(args) > c.max {
		return "", fmt.Errorf("%s: wrong number of arguments", f[0])
	}
	return c.run(sh, args)
}

// obj returns the named object.
func (sh *shell) obj(name string) (*scriptobj.Object, error) {
	if name == "-" {
		return nil, nil
	}
	o := sh.objs[name]
	if o == nil {
		return nil, fmt.Errorf("no object named %q", name)
	}
	return o, nil
}

// value converts an argument to a value, resolving object names.
func (sh *shell) value(s string) scriptobj.Value {
	if o := sh.objs[s]; o != nil {
		return o
	}
	return s
}

// show formats a value for output.
func (sh *shell) show(v scriptobj.Value) string {
	if o, ok := v.(*scriptobj.Object); ok {
		for name, x := range sh.objs {
			if x == o {
				return "<" + name + ">"
			}
		}
		return fmt.Sprintf("<object %#x>", o.UniqueID())
	}
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}

func (sh *shell) cmdNew(args []string) (string, error) {
	sh.objs[args[0]] = sh.vm.NewObject(nil)
	return "", nil
}

func (sh *shell) cmdProto(args []string) (string, error) {
	o, err := sh.obj(args[0])
	if err != nil {
		return "", err
	}
	p, err := sh.obj(args[1])
	if err != nil {
		return "", err
	}
	return "", o.SetPrototype(p)
}

func (sh *shell) cmdScope(args []string) (string, error) {
	p, err := sh.obj(args[1])
	if err != nil {
		return "", err
	}
	sh.objs[args[0]] = sh.vm.NewScope(p)
	return "", nil
}

func (sh *shell) cmdWith(args []string) (string, error) {
	t, err := sh.obj(args[1])
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", fmt.Errorf("with needs a target")
	}
	p, err := sh.obj(args[2])
	if err != nil {
		return "", err
	}
	sh.objs[args[0]] = sh.vm.NewWithScope(t, p)
	return "", nil
}

func (sh *shell) cmdCall(args []string) (string, error) {
	p, err := sh.obj(args[1])
	if err != nil {
		return "", err
	}
	sh.objs[args[0]] = sh.vm.NewCallScope(p)
	return "", nil
}

// target returns the object named by the first argument, which must exist.
func (sh *shell) target(args []string) (*scriptobj.Object, error) {
	o, err := sh.obj(args[0])
	if err == nil && o == nil {
		err = fmt.Errorf("%q is not an object", args[0])
	}
	return o, err
}

func (sh *shell) cmdPut(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	return "", sh.vm.Put(o, scriptobj.KeyOf(args[1]), sh.value(args[2]))
}

func (sh *shell) cmdGet(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	v, err := sh.vm.Get(o, scriptobj.KeyOf(args[1]))
	if err != nil {
		return "", err
	}
	return sh.show(v), nil
}

func (sh *shell) cmdHas(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(sh.vm.Has(o, scriptobj.KeyOf(args[1]))), nil
}

func (sh *shell) cmdDel(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	ok, err := sh.vm.Delete(o, scriptobj.KeyOf(args[1]))
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(ok), nil
}

// parseAttrs parses either a number or names joined by |.
func parseAttrs(s string) (scriptobj.Attr, error) {
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return scriptobj.Attr(n), nil
	}
	var a scriptobj.Attr
	for _, name := range strings.Split(s, "|") {
		switch name {
		case "Empty":
		case "ReadOnly":
			a |= scriptobj.ReadOnly
		case "DontEnum":
			a |= scriptobj.DontEnum
		case "Permanent":
			a |= scriptobj.Permanent
		case "UninitializedConst":
			a |= scriptobj.UninitializedConst
		default:
			return 0, fmt.Errorf("unknown attribute %q", name)
		}
	}
	return a, nil
}

func (sh *shell) cmdAttrs(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	k := scriptobj.KeyOf(args[1])
	if len(args) == 3 {
		a, err := parseAttrs(args[2])
		if err != nil {
			return "", err
		}
		return "", o.SetAttributes(k, a)
	}
	a, err := o.GetAttributes(k)
	if err != nil {
		return "", err
	}
	return a.String(), nil
}

func (sh *shell) cmdConst(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	k := scriptobj.KeyOf(args[1])
	if len(args) == 2 {
		return "", o.DefineConst(k)
	}
	return "", o.InitConst(k, sh.value(args[2]))
}

func (sh *shell) cmdSeal(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	return "", sh.vm.Seal(o)
}

func (sh *shell) cmdFreeze(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	o.PreventExtensions()
	return "", nil
}

func (sh *shell) cmdKeys(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	all := len(args) == 2 && args[1] == "all"
	var b strings.Builder
	for i, k := range o.OwnKeys(all) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k.String())
	}
	return b.String(), nil
}

func (sh *shell) cmdEnum(args []string) (string, error) {
	o, err := sh.target(args)
	if err != nil {
		return "", err
	}
	mode := scriptobj.EnumKeys
	if len(args) == 2 {
		switch args[1] {
		case "keys":
		case "values":
			mode = scriptobj.EnumValues
		case "entries":
			mode = scriptobj.EnumEntries
		default:
			return "", fmt.Errorf("unknown enumeration mode %q", args[1])
		}
	}
	e, err := sh.vm.Enumerate(o, mode)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		ok, err := e.Next()
		if err != nil {
			return b.String(), err
		}
		if !ok {
			break
		}
		v, err := e.Current()
		if err != nil {
			return b.String(), err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		switch v := v.(type) {
		case scriptobj.Key:
			b.WriteString(v.String())
		case scriptobj.Entry:
			fmt.Fprintf(&b, "%s: %s", v.Key, sh.show(v.Value))
		default:
			b.WriteString(sh.show(v))
		}
	}
	return b.String(), nil
}

func (sh *shell) cmdName(args []string) (string, error) {
	s, err := sh.target(args)
	if err != nil {
		return "", err
	}
	v, err := sh.vm.Name(s, args[1])
	if err != nil {
		return "", err
	}
	return sh.show(v), nil
}

func (sh *shell) cmdAssign(args []string) (string, error) {
	s, err := sh.target(args)
	if err != nil {
		return "", err
	}
	bound := sh.vm.Bind(s, args[1])
	return "", sh.vm.SetName(bound, s, args[1], sh.value(args[2]))
}

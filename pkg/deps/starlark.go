package deps

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
)

type starlarkCtx struct {
	builders []*Builder
}

func getStarlarkCtx(thread *starlark.Thread) *starlarkCtx {
	return thread.Local("depsCtx").(*starlarkCtx)
}

func list2stringSlice(input *starlark.List, field string) ([]string, error) {
	if input == nil {
		return []string{}, nil
	}

	result := make([]string, 0, input.Len())
	iter := input.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		switch value := item.(type) {
		case starlark.String:
			result = append(result, value.GoString())
		default:
			return nil, eris.Errorf("expected all items in %s to be strings but found %s", field, item.Type())
		}
	}
	return result, nil
}

func dependency(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var flags *starlark.List
	var genArgs *starlark.List
	var buildArgs *starlark.List
	var linkageName string

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "flags?", &flags, "gen_args?", &genArgs,
		"build_args?", &buildArgs, "linkage?", &linkageName)
	if err != nil {
		return nil, err
	}

	linkage, err := ParseLinkage(linkageName)
	if err != nil {
		return nil, err
	}

	flagList, err := list2stringSlice(flags, "flags")
	if err != nil {
		return nil, err
	}

	genList, err := list2stringSlice(genArgs, "gen_args")
	if err != nil {
		return nil, err
	}

	buildList, err := list2stringSlice(buildArgs, "build_args")
	if err != nil {
		return nil, err
	}

	builder := New(name)
	for _, flag := range flagList {
		builder.GenFlag(flag)
	}
	builder.GenArgs(genList...).
		BuildArgs(buildList...).
		Linkage(linkage)

	ctx := getStarlarkCtx(thread)
	ctx.builders = append(ctx.builders, builder)
	return starlark.None, nil
}

// ParseStarlark executes a deps.star script. Each call to dependency() adds an entry to the table:
//
//	dependency("glfw", flags = ["GLFW_BUILD_EXAMPLES=OFF"], linkage = "shared")
//	dependency("glm", linkage = "shared" if OS == "windows" else "static")
//
// print() output goes to the logger attached to ctx.
func ParseStarlark(ctx context.Context, filename string, script []byte) (Table, error) {
	builtins := starlark.StringDict{
		"OS":         starlark.String(runtime.GOOS),
		"ARCH":       starlark.String(runtime.GOARCH),
		"dependency": starlark.NewBuiltin("dependency", dependency),
	}

	thread := &starlark.Thread{
		Name: "deps",
		Print: func(thread *starlark.Thread, msg string) {
			zerolog.Ctx(ctx).Info().Str("path", filename).Msg(msg)
		},
	}

	sctx := &starlarkCtx{}
	thread.SetLocal("depsCtx", sctx)

	_, err := starlark.ExecFile(thread, filename, script, builtins)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, eris.Errorf("failed to execute %s:\n%s", filename, evalError.Backtrace())
		}
		return nil, eris.Wrapf(err, "failed to execute %s", filename)
	}

	table := make(Table, len(sctx.builders))
	for idx, builder := range sctx.builders {
		table[idx] = builder.Spec()
	}

	err = table.Validate()
	if err != nil {
		return nil, err
	}
	return table, nil
}

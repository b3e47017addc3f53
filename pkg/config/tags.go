package config

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// TemplateFunc is a registered plug-in function backing the !template
// tag. It receives the tag's kebab-case argument names already mapped
// to snake_case, per spec §4.1, and returns the steps it expands to.
type TemplateFunc func(args map[string]any) ([]Step, error)

// tagResolver walks a parsed YAML document and rewrites every
// !image-from-ivy-manifest / !embed / !template tag node into a plain
// node carrying its resolved value, so the structural decode pass
// never has to know these tags existed. Grounded on the custom-tag
// constructors (image_from_ivy_manifest, load_embedded_command,
// load_yaml_template) in original_source/hopic/config_reader.py.
type tagResolver struct {
	manifestPath string
	volumeVars   map[string]any
	templates    map[string]TemplateFunc
}

func (r *tagResolver) resolve(node ast.Node) (ast.Node, error) {
	switch n := node.(type) {
	case *ast.TagNode:
		resolved, err := r.resolve(n.Value)
		if err != nil {
			return nil, err
		}
		return r.expandTag(n, resolved)
	case *ast.MappingNode:
		for _, mv := range n.Values {
			if err := r.resolveInPlace(&mv.Value); err != nil {
				return nil, err
			}
		}
		return n, nil
	case *ast.MappingValueNode:
		if err := r.resolveInPlace(&n.Value); err != nil {
			return nil, err
		}
		return n, nil
	case *ast.SequenceNode:
		for i := range n.Values {
			v := n.Values[i]
			resolved, err := r.resolve(v)
			if err != nil {
				return nil, err
			}
			n.Values[i] = resolved
		}
		return n, nil
	default:
		return node, nil
	}
}

func (r *tagResolver) resolveInPlace(slot *ast.Node) error {
	resolved, err := r.resolve(*slot)
	if err != nil {
		return err
	}
	*slot = resolved
	return nil
}

func (r *tagResolver) expandTag(tag *ast.TagNode, value ast.Node) (ast.Node, error) {
	switch tag.Start.Value {
	case "!image-from-ivy-manifest":
		overrides := map[string]string{}
		if m, ok := value.(*ast.MappingNode); ok {
			for _, mv := range m.Values {
				overrides[mv.Key.String()] = mv.Value.String()
			}
		}
		image, err := resolveIvyToolchainImage(r.manifestPath, overrides)
		if err != nil {
			return nil, err
		}
		return stringNode(image), nil
	case "!embed":
		cmdline, err := renderNodeText(value)
		if err != nil {
			return nil, err
		}
		stub, err := runEmbeddedCommand(cmdline)
		if err != nil {
			return errorVariantNode(err.Error()), nil
		}
		doc, err := parser.ParseBytes([]byte(stub), 0)
		if err != nil || len(doc.Docs) == 0 {
			return errorVariantNode(fmt.Sprintf("!embed output is not valid YAML: %v", err)), nil
		}
		return r.resolve(doc.Docs[0].Body)
	case "!template":
		name, args, err := parseTemplateInvocation(value)
		if err != nil {
			return nil, err
		}
		fn, ok := r.templates[name]
		if !ok {
			return nil, fmt.Errorf("config: no registered template %q", name)
		}
		steps, err := fn(args)
		if err != nil {
			return nil, err
		}
		return stepsToNode(steps), nil
	default:
		return value, nil
	}
}

// runEmbeddedCommand splits cmdline with POSIX shell quoting, runs it
// and returns its stdout, to be re-parsed as spliced-in YAML.
func runEmbeddedCommand(cmdline string) (string, error) {
	argv, _, err := splitShellCommand(cmdline)
	if err != nil || len(argv) == 0 {
		return "", fmt.Errorf("config: invalid !embed command %q", cmdline)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("config: !embed command %q failed: %w", cmdline, err)
	}
	return out.String(), nil
}

func renderNodeText(n ast.Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("config: !embed requires a command string")
	}
	return n.String(), nil
}

func stringNode(s string) ast.Node {
	tk := token.New(s, s, &token.Position{})
	return ast.String(tk)
}

// errorVariantNode produces a stub "error variant" step, a single
// shell-command string scalar, that fails loudly at build time but lets
// the rest of the document parse,
// per get_default_error_variant in original_source/hopic/config_reader.py.
func errorVariantNode(msg string) ast.Node {
	sh := fmt.Sprintf("sh -c 'echo %s >&2; exit 1'", shellQuote(msg))
	tk := token.New(sh, sh, &token.Position{})
	return ast.String(tk)
}

func shellQuote(s string) string {
	return "'" + replaceAllSingleQuotes(s) + "'"
}

func replaceAllSingleQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\\', '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func parseTemplateInvocation(value ast.Node) (name string, args map[string]any, err error) {
	m, ok := value.(*ast.MappingNode)
	if !ok || len(m.Values) == 0 {
		return "", nil, fmt.Errorf("config: !template requires a mapping naming the template")
	}
	first := m.Values[0]
	name = first.Key.String()
	args = map[string]any{}
	if argMap, ok := first.Value.(*ast.MappingNode); ok {
		for _, mv := range argMap.Values {
			args[kebabToSnake(mv.Key.String())] = mv.Value.String()
		}
	}
	return name, args, nil
}

func kebabToSnake(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			out[i] = '_'
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}

// stepsToNode renders a []Step produced by a template function back
// into a sequence-of-mappings AST node so it can be spliced into the
// surrounding document as if it had been written out literally.
func stepsToNode(steps []Step) ast.Node {
	values := make([]ast.Node, 0, len(steps))
	for _, s := range steps {
		text := "sh: " + yamlQuoteScalar(joinArgv(s.Sh))
		doc, err := parser.ParseBytes([]byte(text), 0)
		if err != nil || len(doc.Docs) == 0 {
			continue
		}
		values = append(values, doc.Docs[0].Body)
	}
	tk := token.New("", "", &token.Position{})
	return &ast.SequenceNode{Start: tk, Values: values}
}

func joinArgv(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

func yamlQuoteScalar(s string) string {
	return "\"" + replaceAllDoubleQuotes(s) + "\""
}

func replaceAllDoubleQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

package javap

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/daimatz/gojavap/pkg/classfile"
	"github.com/daimatz/gojavap/pkg/descriptor"
)

// Outline renders the structure of cf as a tree: interfaces, fields and
// methods with their code and attribute summaries. Members are filtered
// by access the same way Print filters them.
func Outline(cf *classfile.ClassFile, access Access) string {
	pool := cf.ConstantPool
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s (version %d.%d)", dotted(pool.ClassText(int(cf.ThisClass))), cf.MajorVersion, cf.MinorVersion))

	if cf.SuperClass != 0 {
		tree.AddMetaNode("extends", dotted(pool.ClassText(int(cf.SuperClass))))
	}
	if len(cf.Interfaces) > 0 {
		ifaces := tree.AddBranch("interfaces")
		for _, idx := range cf.Interfaces {
			ifaces.AddNode(dotted(pool.ClassText(int(idx))))
		}
	}

	var shownFields []*classfile.FieldInfo
	for i := range cf.Fields {
		if access.allows(cf.Fields[i].AccessFlags) {
			shownFields = append(shownFields, &cf.Fields[i])
		}
	}
	fields := tree.AddBranch(fmt.Sprintf("fields (%d)", len(shownFields)))
	for _, f := range shownFields {
		node := fields.AddBranch(modifiers(f.AccessFlags, fieldModifiers) + descriptor.Field(f.Descriptor) + " " + f.Name)
		addAttributeNodes(node, f.Attributes)
	}

	var shownMethods []*classfile.MethodInfo
	for i := range cf.Methods {
		if access.allows(cf.Methods[i].AccessFlags) {
			shownMethods = append(shownMethods, &cf.Methods[i])
		}
	}
	methods := tree.AddBranch(fmt.Sprintf("methods (%d)", len(shownMethods)))
	for _, m := range shownMethods {
		params, ret, _ := descriptor.Method(m.Descriptor)
		node := methods.AddBranch(modifiers(m.AccessFlags, methodModifiers) + ret + " " + m.Name + params)
		if c := m.Code; c != nil {
			code := node.AddMetaBranch("code", fmt.Sprintf("%d bytes, stack %d, locals %d", len(c.Code), c.MaxStack, c.MaxLocals))
			if n := len(c.ExceptionHandlers); n > 0 {
				code.AddMetaNode("handlers", n)
			}
			if n := len(c.LineNumbers); n > 0 {
				code.AddMetaNode("lines", n)
			}
			if n := len(c.LocalVariables); n > 0 {
				code.AddMetaNode("locals", n)
			}
			if n := len(c.StackMapTable) + len(c.StackMap); n > 0 {
				code.AddMetaNode("frames", n)
			}
		}
		addAttributeNodes(node, m.Attributes)
	}

	if len(cf.Attributes) > 0 {
		addAttributeNodes(tree.AddBranch("attributes"), cf.Attributes)
	}
	return tree.String()
}

func addAttributeNodes(tree treeprint.Tree, attrs []classfile.AttributeInfo) {
	for _, a := range attrs {
		if a.Name == "Code" {
			continue
		}
		tree.AddMetaNode(len(a.Data), a.Name)
	}
}

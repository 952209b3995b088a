package mcpserver

// TagSyntaxContract describes the custom tag syntax that LLM consumers
// should follow when writing tagged YAML documents.
const TagSyntaxContract = `# Tag Syntax Contract

A tag marks a YAML value as an instance of a registered schema.

## Tag names

- A tag is ` + "`" + `!` + "`" + ` followed by an identifier that starts with an uppercase
  ASCII letter, then letters, digits or underscores: ` + "`" + `!Foo` + "`" + `, ` + "`" + `!Http_2` + "`" + `.
- ` + "`" + `!foo` + "`" + ` and ` + "`" + `!!str` + "`" + ` are plain YAML and are not tags.

## Bodies

Inline body, a flow mapping right after the tag on the same line:

` + "```" + `yaml
key: !Foo{a: 1, b: true}
` + "```" + `

Block body, the following lines indented deeper than the tag's column:

` + "```" + `yaml
key: !Foo
  a: 1
  b: true
other: value
` + "```" + `

The block ends at the first line whose indentation is at or left of the
tag. A tag on the last line has no body.

## Nesting

Tags may nest inside bodies. Nested tag markers are removed before the
outer body is parsed, so ` + "`" + `!Foo{a: !Bar{x: 1}}` + "`" + ` parses the outer body
as ` + "`" + `{a: {x: 1}}` + "`" + `.

## Keys

Property keys must be declared in the tag's schema. Use the
` + "`" + `list_schemas` + "`" + ` tool for the registered tags, their properties and
types, and ` + "`" + `complete` + "`" + ` to ask for suggestions at a cursor.
`

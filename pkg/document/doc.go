// Package document loads YAML template documents and renders them with the
// tree engine.
//
// A document declares initial state, optional components and partials, and
// a template:
//
//	state:
//	  title: Inbox
//	  items: [{id: 1, subject: Hello}]
//	components:
//	  card:
//	    tag: section
//	    props: {heading: Untitled}
//	    template:
//	      - element: h2
//	        children: [{text: "{{heading}}"}]
//	      - slot: ""
//	template:
//	  - element: ul
//	    children:
//	      - each: items
//	        key: id
//	        children:
//	          - element: li
//	            children: [{text: "{{item.subject}}"}]
//
// Strings containing {{path}} are resolved at render time, first against
// the lexical scope and then against the state. A string that is a single
// {{path}} yields the raw value.
package document

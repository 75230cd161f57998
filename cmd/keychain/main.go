// SPDX-License-Identifier: GPL-3.0-or-later

// Command keychain is a thin CLI wrapper over
// [github.com/nrao/matrix/keymaster.Client] exposing the
// four server verbs as shell-like subcommands (ls, tree, read, write,
// new, del). It carries no logic of its own beyond argument parsing and
// result formatting — every mutation goes straight through the Keymaster
// client.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nrao/matrix/keymaster"
	"github.com/nrao/matrix/keystore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("keychain", flag.ContinueOnError)
	url := fs.String("url", "", "Keymaster control socket URN")
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if *url == "" || len(rest) == 0 {
		fmt.Fprintln(stderr, "usage: keychain -url <urn> <ls|tree|read|write|new|del> [args...]")
		return 2
	}

	client, err := keymaster.NewClient(nil, *url)
	if err != nil {
		fmt.Fprintf(stderr, "keychain: connecting to %s: %v\n", *url, err)
		return 1
	}
	defer client.Close()

	cmd, cmdArgs := rest[0], rest[1:]
	if err := dispatch(client, cmd, cmdArgs, stdout); err != nil {
		fmt.Fprintf(stderr, "keychain: %v\n", err)
		return 1
	}
	return 0
}

func dispatch(client *keymaster.Client, cmd string, args []string, out *os.File) error {
	switch cmd {
	case "ls":
		return doLS(client, singleArg(args), out)
	case "tree":
		return doTree(client, singleArg(args), out)
	case "read":
		return doRead(client, singleArg(args), out)
	case "write":
		return doWrite(client, args)
	case "new":
		return doNew(client, args)
	case "del":
		return doDel(client, singleArg(args))
	default:
		return fmt.Errorf("unknown subcommand %q", cmd)
	}
}

func singleArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// doLS lists the immediate children of keychain, or the root's if
// keychain is empty.
func doLS(client *keymaster.Client, keychain string, out *os.File) error {
	node, err := client.Get(keychain)
	if err != nil {
		return err
	}
	keys, ok := node.Keys()
	if !ok {
		fmt.Fprintln(out, renderScalar(node))
		return nil
	}
	for _, k := range keys {
		fmt.Fprintln(out, k)
	}
	return nil
}

// doTree renders keychain's subtree recursively, one dotted path per line.
func doTree(client *keymaster.Client, keychain string, out *os.File) error {
	node, err := client.Get(keychain)
	if err != nil {
		return err
	}
	printTree(node, keychain, out)
	return nil
}

func printTree(node keystore.Node, prefix string, out *os.File) {
	keys, ok := node.Keys()
	if !ok {
		fmt.Fprintf(out, "%s: %s\n", prefix, renderScalar(node))
		return
	}
	for _, k := range keys {
		child := node.Field(k)
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		printTree(child, path, out)
	}
}

func doRead(client *keymaster.Client, keychain string, out *os.File) error {
	node, err := client.Get(keychain)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderScalar(node))
	return nil
}

// doWrite performs PUT with create=false: the keychain must already exist.
func doWrite(client *keymaster.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("write requires <keychain> <value>")
	}
	return client.Put(args[0], keystore.Scalar(strings.Join(args[1:], " ")), false)
}

// doNew performs PUT with create=true, materializing missing intermediate
// mappings.
func doNew(client *keymaster.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("new requires <keychain> <value>")
	}
	return client.Put(args[0], keystore.Scalar(strings.Join(args[1:], " ")), true)
}

func doDel(client *keymaster.Client, keychain string) error {
	if keychain == "" {
		return fmt.Errorf("del requires <keychain>")
	}
	return client.Del(keychain)
}

func renderScalar(n keystore.Node) string {
	if v, ok := n.ScalarValue(); ok {
		return v
	}
	data, err := keystore.Marshal(n)
	if err != nil {
		return n.String()
	}
	return strings.TrimRight(string(data), "\n")
}

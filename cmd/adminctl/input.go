package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type passwordFlags struct {
	password  string
	fromStdin bool
}

func (p *passwordFlags) register(cmd *cobra.Command, name string) {
	cmd.Flags().StringVar(&p.password, name, "", "the password, prefer --"+name+"-stdin")
	cmd.Flags().BoolVar(&p.fromStdin, name+"-stdin", false, "read the password from the first line of stdin")
}

func (p *passwordFlags) resolve(cmd *cobra.Command) (string, error) {
	if !p.fromStdin {
		if p.password == "" {
			return "", fmt.Errorf("a password is required")
		}
		return p.password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("no password was provided on stdin")
	}
	return password, nil
}

// readRecordInput decodes a YAML or JSON document from path, or from stdin when path is "-".
func readRecordInput(cmd *cobra.Command, path string, into any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(data, into)
	if err != nil {
		return fmt.Errorf("cannot decode the record in %s: %w", path, err)
	}
	return nil
}

func parseRecordID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", arg)
	}
	return id, nil
}

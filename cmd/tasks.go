package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/assetflow/internal/recipe"
	"github.com/maxkimambo/assetflow/internal/taskgraph"
	"github.com/maxkimambo/assetflow/internal/utils"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks of the build and their prerequisites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		graph, err := recipe.Build(cfg, recipe.Deps{})
		if err != nil {
			return err
		}
		table, err := taskTable(graph)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), table.String())
		return nil
	},
}

// taskTable lists tasks in an order where prerequisites come first.
func taskTable(graph *taskgraph.Graph) (*utils.TableFormatter, error) {
	order, err := graph.Order()
	if err != nil {
		return nil, err
	}
	table := utils.NewTableFormatter("Task", "Prerequisites", "Description")
	for _, name := range order {
		task, _ := graph.Get(name)
		table.AddRow(name, strings.Join(task.Prerequisites, ", "), task.Description)
	}
	return table, nil
}

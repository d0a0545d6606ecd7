package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	ucsm "github.com/griddynamics/goucsm"
)

// queryFlags are the long options shared by the resolve commands.
type queryFlags struct {
	classID      string
	dn           string
	inDn         string
	hierarchical bool
	onlyDn       bool
}

func (q *queryFlags) addHierarchy(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&q.hierarchical, "inHierarchical", false, "include the children of every object")
	cmd.Flags().BoolVar(&q.onlyDn, "only-dn", false, "print class and DN only")
}

var (
	findDnsFlags         queryFlags
	resolveDnFlags       queryFlags
	resolveDnsFlags      queryFlags
	resolveChildrenFlags queryFlags
	resolveClassesFlags  queryFlags
	resolveClassFlags    queryFlags
	resolveParentFlags   queryFlags
)

var findDnsCmd = &cobra.Command{
	Use:   "configFindDnsByClassId",
	Short: "Print the DNs of all objects of a class",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, v, func(ctx context.Context, s *ucsm.Session) error {
			dns, err := s.FindDnsByClassID(ctx, findDnsFlags.classID, nil)
			if err != nil {
				return err
			}
			for _, dn := range dns {
				fmt.Fprintln(cmd.OutOrStdout(), dn)
			}
			return nil
		})
	},
}

var resolveDnCmd = &cobra.Command{
	Use:   "configResolveDn",
	Short: "Print the object with the given DN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, v, func(ctx context.Context, s *ucsm.Session) error {
			mo, err := s.ResolveDn(ctx, resolveDnFlags.dn, resolveDnFlags.hierarchical)
			if err != nil {
				return err
			}
			printObject(cmd.OutOrStdout(), mo, resolveDnFlags.onlyDn, resolveDnFlags.hierarchical)
			return nil
		})
	},
}

var resolveDnsCmd = &cobra.Command{
	Use:   "configResolveDns dn...",
	Short: "Print the objects with the given DNs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, v, func(ctx context.Context, s *ucsm.Session) error {
			objs, unresolved, err := s.ResolveDns(ctx, args, resolveDnsFlags.hierarchical)
			if err != nil {
				return err
			}
			printObjects(cmd.OutOrStdout(), objs, resolveDnsFlags.onlyDn, resolveDnsFlags.hierarchical)
			printUnresolved(cmd.OutOrStdout(), unresolved)
			return nil
		})
	},
}

var resolveChildrenCmd = &cobra.Command{
	Use:   "configResolveChildren",
	Short: "Print the children of an object",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &resolveChildrenFlags
		return withSession(cmd, v, func(ctx context.Context, s *ucsm.Session) error {
			objs, err := s.ResolveChildren(ctx, f.classID, f.inDn, f.hierarchical, nil)
			if err != nil {
				return err
			}
			printObjects(cmd.OutOrStdout(), objs, f.onlyDn, f.hierarchical)
			return nil
		})
	},
}

var resolveClassesCmd = &cobra.Command{
	Use:   "configResolveClasses class...",
	Short: "Print all objects of the given classes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, v, func(ctx context.Context, s *ucsm.Session) error {
			objs, err := s.ResolveClasses(ctx, args, resolveClassesFlags.hierarchical)
			if err != nil {
				return err
			}
			printObjects(cmd.OutOrStdout(), objs, resolveClassesFlags.onlyDn, resolveClassesFlags.hierarchical)
			return nil
		})
	},
}

var resolveClassCmd = &cobra.Command{
	Use:   "configResolveClass",
	Short: "Print all objects of a class",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, v, func(ctx context.Context, s *ucsm.Session) error {
			objs, err := s.ResolveClass(ctx, resolveClassFlags.classID, nil, resolveClassFlags.hierarchical)
			if err != nil {
				return err
			}
			printObjects(cmd.OutOrStdout(), objs, resolveClassFlags.onlyDn, resolveClassFlags.hierarchical)
			return nil
		})
	},
}

var resolveParentCmd = &cobra.Command{
	Use:   "configResolveParent",
	Short: "Print the parent of an object",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, v, func(ctx context.Context, s *ucsm.Session) error {
			mo, err := s.ResolveParent(ctx, resolveParentFlags.dn, resolveParentFlags.hierarchical)
			if err != nil {
				return err
			}
			printObject(cmd.OutOrStdout(), mo, resolveParentFlags.onlyDn, resolveParentFlags.hierarchical)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(findDnsCmd, resolveDnCmd, resolveDnsCmd, resolveChildrenCmd,
		resolveClassesCmd, resolveClassCmd, resolveParentCmd)

	findDnsCmd.Flags().StringVar(&findDnsFlags.classID, "classId", "", "class to look up")
	_ = findDnsCmd.MarkFlagRequired("classId")

	resolveDnCmd.Flags().StringVar(&resolveDnFlags.dn, "dn", "", "DN of the object")
	_ = resolveDnCmd.MarkFlagRequired("dn")
	resolveDnFlags.addHierarchy(resolveDnCmd)

	resolveDnsFlags.addHierarchy(resolveDnsCmd)

	resolveChildrenCmd.Flags().StringVar(&resolveChildrenFlags.classID, "classId", "", "restrict the children to a class")
	resolveChildrenCmd.Flags().StringVar(&resolveChildrenFlags.inDn, "inDn", "", "DN of the parent object")
	resolveChildrenFlags.addHierarchy(resolveChildrenCmd)

	resolveClassesFlags.addHierarchy(resolveClassesCmd)

	resolveClassCmd.Flags().StringVar(&resolveClassFlags.classID, "classId", "", "class to look up")
	_ = resolveClassCmd.MarkFlagRequired("classId")
	resolveClassFlags.addHierarchy(resolveClassCmd)

	resolveParentCmd.Flags().StringVar(&resolveParentFlags.dn, "dn", "", "DN of the child object")
	_ = resolveParentCmd.MarkFlagRequired("dn")
	resolveParentFlags.addHierarchy(resolveParentCmd)
}

/*
Package spaceport creates, enters, and persists Linux kernel namespaces: mount,
UTS, IPC, user, network, PID, and cgroup namespaces.

  - [Clone] and [CloneFunc] start a child process inside a fresh set of
    namespaces.
  - [Unshare] (and its panicking sibling [MustUnshare]) detaches the calling
    OS-level thread from its namespaces, optionally persisting the new
    namespaces using [PersistTo].
  - [Setns] joins existing namespaces, referenced either [ByFd] or [ByPid].
  - [PersistNamespace] and [PersistAll] bind-mount “/proc/[PID]/ns/[type]”
    onto paths so that namespaces outlive their processes; [Unpersist] undoes
    this.

# Flags

Namespace types are represented by [Flag] values that are bit-compatible with
the kernel's CLONE_NEW* constants, and can be combined into a [FlagSet].
[FlagSet.All] iterates over the individual namespace types in a flag set in
the canonical order mount, uts, ipc, user, net, cgroup. Cgroup namespaces are
only iterated over when the running kernel supports them, see [Supported].

The canonical names (see [Flag.Name]) are used to fill the single “%s” slot of
a path [Template] when persisting namespaces, so a template “/run/ns/%s”
results in “/run/ns/mount”, “/run/ns/uts”, and so on. Please note that the
canonical name of mount namespaces is “mount”, not “mnt” as in procfs.

# Status and Errors

All operations return a [Status] together with an error. In case of failure
the status is negative and the error is either a [*UsageError] (matching
[ErrUsage]) when the caller passed incomplete arguments, or a
[*PrimitiveError] when a kernel operation failed.

# Threads

Namespaces are an attribute of OS-level threads. As the Go runtime schedules
go routines onto arbitrary threads, callers of [Unshare] and [Setns] should
lock their go routine to its current thread using [runtime.LockOSThread]
beforehand, and should usually not unlock it afterwards, so that the tainted
thread gets thrown away when the go routine ends.

The Linux kernel does not allow multi-threaded processes – and all Go programs
are – to unshare their user namespace or to join a different user
namespace. Use [Clone] or [CloneFunc] to start a process inside a new user
namespace instead.
*/
package spaceport
